package workflow

import (
	"fmt"
	"strings"
)

// GraphError is raised at build/validation time: duplicate node or topic
// names, a topic added under a reserved name, subscriptions or publish_to
// sets referencing unknown topics, a missing event store. Fatal to
// construction. All validation failures
// discovered during a single Build are collected into one GraphError
// rather than failing on the first.
type GraphError struct {
	Errors []error
}

func (e *GraphError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("workflow: %d graph error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *GraphError) Unwrap() []error { return e.Errors }

// ProtocolError is a runtime violation of the topic contract: a dangling
// consumed_event_ids reference, an append_user_input call against an
// undelivered parent, or any other data-integrity failure discovered
// while driving a request. When raised inside Drive it is fatal to the
// current request and recorded as WorkflowFailed; when returned by
// PendingAsks or Reply it is only returned to the caller.
type ProtocolError struct {
	Reason string
	Cause  error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow: protocol error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("workflow: protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// CommandError wraps a node command's failure. It is captured as a
// NodeFailed event; no ConsumeFromTopic records are written for the failed
// invocation, so the stored history keeps its input unread. Restore does
// not re-enqueue a node whose last NodeInvoke is settled by NodeFailed.
type CommandError struct {
	Node  string
	Cause error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("workflow: node %q command failed: %v", e.Node, e.Cause)
}

func (e *CommandError) Unwrap() error { return e.Cause }
