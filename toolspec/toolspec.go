// Package toolspec validates function specs and call arguments against JSON
// Schema, so a function-call node can reject a malformed invocation before
// it ever runs.
package toolspec

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/goadesign/workflow-engine/message"
)

// Schema is a compiled JSON Schema ready to validate argument payloads
// against one node.FunctionSpec's Parameters document.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile builds a Schema from a FunctionDescriptor's Parameters map,
// which is itself a JSON Schema document — the form a function-call node
// advertises its parameters in. An empty/nil Parameters map compiles to
// a schema that admits any payload.
func Compile(spec message.FunctionDescriptor) (*Schema, error) {
	doc := map[string]any(spec.Parameters)
	if doc == nil {
		doc = map[string]any{}
	}

	c := jsonschema.NewCompiler()
	resource := fmt.Sprintf("function/%s.json", spec.Name)
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("toolspec: add schema resource for %q: %w", spec.Name, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("toolspec: compile schema for %q: %w", spec.Name, err)
	}
	return &Schema{compiled: compiled}, nil
}

// ValidateArguments checks a tool call's arguments against the schema.
// arguments is the JSON-compatible value carried on message.ToolCall.
func (s *Schema) ValidateArguments(arguments any) error {
	doc, err := toJSONDoc(arguments)
	if err != nil {
		return fmt.Errorf("toolspec: decode arguments: %w", err)
	}
	if err := s.compiled.Validate(doc); err != nil {
		return fmt.Errorf("toolspec: arguments do not match schema: %w", err)
	}
	return nil
}

// ValidateCall finds call.Name's schema in specs and validates call's
// arguments against it. It returns an error if no matching spec is
// advertised, so a function-call node cannot silently execute an
// unadvertised function.
func ValidateCall(call message.ToolCall, specs []message.FunctionDescriptor) error {
	for _, spec := range specs {
		if spec.Name != call.Name {
			continue
		}
		schema, err := Compile(spec)
		if err != nil {
			return err
		}
		return schema.ValidateArguments(call.Arguments)
	}
	return fmt.Errorf("toolspec: no function spec advertised for %q", call.Name)
}

// toJSONDoc round-trips v through JSON so arbitrary Go values (structs,
// map[string]any decoded from a provider payload, etc.) become the plain
// any tree jsonschema.Validate expects.
func toJSONDoc(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
