package workflow

import (
	"context"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
)

// Cancel drains requestID's share of the ready queue and records
// WorkflowFailed. In-flight commands are not forcibly stopped: a command
// is responsible for
// honoring ctx cancellation itself; Cancel only stops further dispatch
// and marks the request failed for the façade to observe.
func (w *Workflow) Cancel(ctx context.Context, requestID ident.RequestID, reason string) error {
	w.runsMu.Lock()
	r, ok := w.runs[requestID]
	w.runsMu.Unlock()
	if ok {
		r.queue.drain()
	}

	fail := event.New(event.TypeWorkflowFailed, invoke.Context{AssistantRequestID: requestID})
	fail.Error = reason
	return w.Store.Append(ctx, fail)
}
