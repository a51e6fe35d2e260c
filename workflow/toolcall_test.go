package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/event/inmem"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/subscription"
)

func TestFunctionCallNodeRejectsArgumentsThatFailSchema(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	var ran bool

	fn := &node.Node{
		ID:           "Fn",
		Name:         "Fn",
		Subscription: subscription.Topic(InputTopic),
		PublishTo:    []ident.Topic{OutputTopic},
		FunctionSpecs: []node.FunctionSpec{{
			Name: "get_weather",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{"city": map[string]any{"type": "string"}},
				"required":             []any{"city"},
				"additionalProperties": false,
			},
		}},
		Command: node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
			ran = true
			return []*message.Message{message.New(message.RoleTool, "72F")}, nil
		}),
	}

	wf, err := NewBuilder("toolcall").WithStore(store).AddNode(fn).Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-tc"}

	badCall := message.New(message.RoleAssistant, "")
	badCall.ToolCalls = []message.ToolCall{{ID: "1", Name: "get_weather", Arguments: map[string]any{}}}

	require.NoError(t, wf.Initialize(ctx, ic, []*message.Message{badCall}))
	require.NoError(t, wf.Drive(ctx, ic))
	require.False(t, ran)

	history, err := store.EventsForRequest(ctx, "req-tc")
	require.NoError(t, err)
	failed := eventsOfType(history, event.TypeNodeFailed)
	require.Len(t, failed, 1)
}

func TestFunctionCallNodeAcceptsValidArguments(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	var ran bool

	fn := &node.Node{
		ID:           "Fn",
		Name:         "Fn",
		Subscription: subscription.Topic(InputTopic),
		PublishTo:    []ident.Topic{OutputTopic},
		FunctionSpecs: []node.FunctionSpec{{
			Name: "get_weather",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{"city": map[string]any{"type": "string"}},
				"required":             []any{"city"},
				"additionalProperties": false,
			},
		}},
		Command: node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
			ran = true
			return []*message.Message{message.New(message.RoleTool, "72F")}, nil
		}),
	}

	wf, err := NewBuilder("toolcall2").WithStore(store).AddNode(fn).Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-tc2"}

	goodCall := message.New(message.RoleAssistant, "")
	goodCall.ToolCalls = []message.ToolCall{{ID: "1", Name: "get_weather", Arguments: map[string]any{"city": "Denver"}}}

	require.NoError(t, wf.Initialize(ctx, ic, []*message.Message{goodCall}))
	require.NoError(t, wf.Drive(ctx, ic))
	require.True(t, ran)
}
