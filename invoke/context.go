// Package invoke defines the per-request correlation bundle attached to
// every event the engine produces.
package invoke

import "github.com/goadesign/workflow-engine/ident"

// Context is the request-scoped correlation bundle carried on every event.
// AssistantRequestID is the primary correlation key: the event store is
// keyed by it, and restoration replays exactly the events recorded under
// it.
type Context struct {
	// AssistantRequestID is the primary correlation key for the run.
	AssistantRequestID ident.RequestID

	// ConversationID groups related requests into a multi-turn
	// conversation.
	ConversationID string

	// InvokeID identifies this particular invocation of the workflow
	// (distinct from restorations of the same request, which share
	// AssistantRequestID but may carry different InvokeID values).
	InvokeID string

	// UserID identifies the end user on whose behalf the request runs.
	UserID string
}
