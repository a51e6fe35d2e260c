package event

import (
	"context"
	"fmt"

	"github.com/goadesign/workflow-engine/ident"
)

// Store is the minimal append-only, request-keyed event persistence
// contract. Implementations must preserve append order per request so
// EventsForRequest(ctx, id) replays exactly the sequence Append produced.
//
// Concrete backends (event/inmem, event/redis) are reference
// implementations; the engine itself depends only on this interface.
type Store interface {
	// Append durably records e under e.InvokeContext.AssistantRequestID.
	// Append must be atomic and ordered per request: concurrent Append
	// calls for the same request id must not interleave in a way that
	// reorders what a later EventsForRequest call observes.
	Append(ctx context.Context, e *Event) error

	// EventsForRequest returns the complete history for id in append
	// order.
	EventsForRequest(ctx context.Context, id ident.RequestID) ([]*Event, error)

	// HasEventsForRequest reports whether any events have been recorded
	// for id. The workflow engine uses this to decide whether to
	// initialize a fresh run or restore from history.
	HasEventsForRequest(ctx context.Context, id ident.RequestID) (bool, error)
}

// ErrRequestNotFound is returned by backends that distinguish "no events"
// from "request unknown"; the reference backends do not make this
// distinction and simply return an empty slice, so callers should not rely
// on this error being produced by every Store implementation.
var ErrRequestNotFound = fmt.Errorf("event: request not found")
