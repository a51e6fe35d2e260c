// Package inmem provides an in-memory implementation of event.Store.
//
// The in-memory store is intended for tests and local development. It is
// not durable and should not be used where restoration must survive a
// process restart; use event/redis for that.
package inmem

import (
	"context"
	"sync"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
)

// Store implements event.Store in memory.
type Store struct {
	mu     sync.Mutex
	events map[ident.RequestID][]*event.Event
}

// New returns a new in-memory event store.
func New() *Store {
	return &Store{events: make(map[ident.RequestID][]*event.Event)}
}

// Append implements event.Store.
func (s *Store) Append(_ context.Context, e *event.Event) error {
	id := e.InvokeContext.AssistantRequestID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id] = append(s.events[id], e.Clone())
	return nil
}

// EventsForRequest implements event.Store.
func (s *Store) EventsForRequest(_ context.Context, id ident.RequestID) ([]*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.events[id]
	out := make([]*event.Event, len(all))
	copy(out, all)
	return out, nil
}

// HasEventsForRequest implements event.Store.
func (s *Store) HasEventsForRequest(_ context.Context, id ident.RequestID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[id]) > 0, nil
}
