package toolspec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/message"
)

func weatherSpec() message.FunctionDescriptor {
	return message.FunctionDescriptor{
		Name:        "get_weather",
		Description: "Look up current weather for a city",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
			"required":             []any{"city"},
			"additionalProperties": false,
		},
	}
}

func TestValidateArgumentsAccepts(t *testing.T) {
	t.Parallel()

	schema, err := Compile(weatherSpec())
	require.NoError(t, err)
	require.NoError(t, schema.ValidateArguments(map[string]any{"city": "Boston"}))
}

func TestValidateArgumentsRejectsMissingRequired(t *testing.T) {
	t.Parallel()

	schema, err := Compile(weatherSpec())
	require.NoError(t, err)
	err = schema.ValidateArguments(map[string]any{})
	require.Error(t, err)
}

func TestValidateArgumentsRejectsAdditionalProperties(t *testing.T) {
	t.Parallel()

	schema, err := Compile(weatherSpec())
	require.NoError(t, err)
	err = schema.ValidateArguments(map[string]any{"city": "Boston", "unit": "celsius"})
	require.Error(t, err)
}

func TestCompileWithNilParametersAdmitsAnything(t *testing.T) {
	t.Parallel()

	schema, err := Compile(message.FunctionDescriptor{Name: "noop"})
	require.NoError(t, err)
	require.NoError(t, schema.ValidateArguments(map[string]any{"anything": 1}))
}

func TestValidateCallFindsMatchingSpec(t *testing.T) {
	t.Parallel()

	specs := []message.FunctionDescriptor{weatherSpec()}
	call := message.ToolCall{ID: "1", Name: "get_weather", Arguments: map[string]any{"city": "Denver"}}
	require.NoError(t, ValidateCall(call, specs))
}

func TestValidateCallRejectsUnadvertisedFunction(t *testing.T) {
	t.Parallel()

	call := message.ToolCall{ID: "1", Name: "delete_everything", Arguments: map[string]any{}}
	err := ValidateCall(call, nil)
	require.Error(t, err)
}
