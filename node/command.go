// Package node implements the named participants that bind a subscription
// expression, a publish-to set, and a command together with a readiness
// predicate.
package node

import (
	"context"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

// Command is the opaque callable a node invokes once it becomes ready.
// Concrete language-model adapters, retrieval tools and function executors
// all implement it.
type Command interface {
	// Run is invoked with the request-scoped correlation bundle and the
	// events the node consumed together with all their causal ancestors,
	// in ancestor-graph order (oldest first). It returns the
	// messages the node's publish policy will broadcast to publish_to
	// topics, or an error.
	Run(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error)
}

// CommandFunc adapts a plain function to Command.
type CommandFunc func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error)

// Run implements Command.
func (f CommandFunc) Run(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
	return f(ctx, ic, input)
}

// EchoCommand returns a Command that republishes every input message's
// content, concatenated and prefixed, as a single assistant message. It
// exists for driving a topology end to end (workflowctl's default node
// behavior) without writing a real model/tool adapter.
func EchoCommand(prefix string) Command {
	return CommandFunc(func(_ context.Context, _ invoke.Context, input []*event.Event) ([]*message.Message, error) {
		var content string
		for _, e := range input {
			for _, m := range e.Data {
				if content != "" {
					content += " "
				}
				content += m.Content
			}
		}
		return []*message.Message{message.New(message.RoleAssistant, prefix+content)}, nil
	})
}

// StreamingCommand is the optional variant for commands that produce a
// finite lazy sequence of Messages rather than a single batch. The
// returned channel is closed after the terminal message; a send on errc,
// if any, completes the node's invocation with NodeFailed instead of
// NodeRespond.
type StreamingCommand interface {
	Command
	RunStreaming(ctx context.Context, ic invoke.Context, input []*event.Event) (<-chan *message.Message, <-chan error)
}
