// Package ancestor builds the causal ancestor-event graph a node's command
// walks to reconstruct coherent conversational context.
//
// The graph is a DAG over PublishToTopic events: seed events (the
// PublishToTopic events a node is about to consume) are its roots, and
// each event's ConsumedEventIDs point to parent publishes. Diamond shapes
// from OR subscriptions are expected; cycles are impossible because
// ConsumedEventIDs only ever reference strictly earlier events.
package ancestor

import (
	"fmt"
	"sort"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/message"
)

// DanglingParentError reports a ConsumedEventIDs reference that could not
// be resolved within the supplied event lookup — a data-integrity failure
// the caller should treat as fatal rather than silently skip.
type DanglingParentError struct {
	EventID  string
	ParentID string
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("ancestor: event %q references missing parent %q", e.EventID, e.ParentID)
}

// Lookup resolves an event ID to its event, used to follow
// ConsumedEventIDs edges to parent publishes. Implementations are
// typically backed by a request's full event history.
type Lookup func(id string) (*event.Event, bool)

// MapLookup adapts a slice of events (e.g. event.Store.EventsForRequest)
// into a Lookup indexed by event ID.
func MapLookup(events []*event.Event) Lookup {
	byID := make(map[string]*event.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	return func(id string) (*event.Event, bool) {
		e, ok := byID[id]
		return e, ok
	}
}

// Build assembles the ancestor DAG rooted at seeds (the PublishToTopic
// events a node is about to consume) by recursively resolving
// ConsumedEventIDs through lookup, and returns the topologically,
// causally-then-chronologically ordered sequence of all reachable events
// (seeds included).
//
// Ordering computes reverse-BFS layers from the roots, sorts each layer by
// descending timestamp, then reverses the assembled sequence, yielding
// ascending timestamp order overall while respecting the partial order
// implied by ConsumedEventIDs.
func Build(seeds []*event.Event, lookup Lookup) ([]*event.Event, error) {
	visited := make(map[string]*event.Event)
	var layers [][]*event.Event

	frontier := make([]*event.Event, 0, len(seeds))
	for _, s := range seeds {
		if s == nil {
			continue
		}
		if _, ok := visited[s.ID]; ok {
			continue
		}
		visited[s.ID] = s
		frontier = append(frontier, s)
	}

	for len(frontier) > 0 {
		layers = append(layers, frontier)

		var next []*event.Event
		for _, e := range frontier {
			for _, parentID := range e.ConsumedEventIDs {
				if _, ok := visited[parentID]; ok {
					continue
				}
				parent, ok := lookup(parentID)
				if !ok {
					return nil, &DanglingParentError{EventID: e.ID, ParentID: parentID}
				}
				visited[parentID] = parent
				next = append(next, parent)
			}
		}
		frontier = next
	}

	var ordered []*event.Event
	for _, layer := range layers {
		sorted := make([]*event.Event, len(layer))
		copy(sorted, layer)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp > sorted[j].Timestamp
		})
		ordered = append(ordered, sorted...)
	}

	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	return ordered, nil
}

// Messages concatenates the Data of each event in order, the final
// ancestor Message history passed to a node's command.
func Messages(events []*event.Event) []*message.Message {
	var out []*message.Message
	for _, e := range events {
		out = append(out, e.Data...)
	}
	return out
}
