// Package topic implements the offset-indexed FIFO log at the heart of the
// engine: Topic and its OutputTopic/HumanRequestTopic variants.
//
// A Topic is an abstract type with variants rather than a class hierarchy:
// OutputTopic and HumanRequestTopic embed *Topic and customize
// Publish/add variant-specific operations instead of subclassing it.
package topic

import (
	"context"
	"fmt"
	"sync"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

// AdmissionPredicate is a pure function a topic applies to a candidate
// publish payload. Rejected publishes produce no event and leave no
// trace.
type AdmissionPredicate func(messages []*message.Message) bool

// AlwaysAdmit is the default admission predicate: it accepts every
// payload, nil or empty included.
func AlwaysAdmit([]*message.Message) bool { return true }

// NonEmpty rejects publishes with no messages or whose messages all have
// empty Content, for topics that must not record no-op publishes. The
// reserved topics do not use it; they admit every payload.
func NonEmpty(messages []*message.Message) bool {
	for _, m := range messages {
		if m != nil && m.Content != "" {
			return true
		}
	}
	return false
}

// Topic is an offset-indexed, append-only FIFO log of publish events with
// per-consumer read offsets and an admission predicate.
//
// Invariants:
//
//	event_log[i].Offset == i
//	for every consumer c, 0 <= consumerOffsets[c] <= len(eventLog)
//	offsets are monotonically non-decreasing for each consumer
//	a publish is recorded iff Admission accepted it
type Topic struct {
	mu sync.Mutex

	// Name is the topic's unique name within its workflow.
	Name ident.Topic

	// Admission is applied to every candidate publish payload. Nil means
	// AlwaysAdmit.
	Admission AdmissionPredicate

	// OnPublish, when set, is invoked synchronously after a publish is
	// recorded (used by the workflow engine to drive readiness
	// re-evaluation without the topic knowing about nodes).
	OnPublish func(e *event.Event)

	eventLog        []*event.Event
	consumerOffsets map[ident.Node]int
}

// New constructs a Topic. admission may be nil, in which case AlwaysAdmit
// is used.
func New(name ident.Topic, admission AdmissionPredicate) *Topic {
	if admission == nil {
		admission = AlwaysAdmit
	}
	return &Topic{
		Name:            name,
		Admission:       admission,
		consumerOffsets: make(map[ident.Node]int),
	}
}

// Publish evaluates the admission predicate on messages; on acceptance it
// assigns offset = len(eventLog), appends a PublishToTopic event, invokes
// OnPublish if set, and returns the event. On rejection it returns (nil,
// nil): rejection is silent and produces no event.
func (t *Topic) Publish(ctx context.Context, ic invoke.Context, publisherName, publisherType string, messages []*message.Message, consumedEventIDs []string) (*event.Event, error) {
	return t.publishTagged(ctx, ic, publisherName, publisherType, messages, consumedEventIDs, nil)
}

// publishTagged is Publish with an optional tag hook applied to the event
// before it is appended to the log, used by variants (HumanRequestTopic)
// that need to stamp variant-specific fields atomically with the append.
func (t *Topic) publishTagged(_ context.Context, ic invoke.Context, publisherName, publisherType string, messages []*message.Message, consumedEventIDs []string, tag func(*event.Event)) (*event.Event, error) {
	t.mu.Lock()
	if !t.Admission(messages) {
		t.mu.Unlock()
		return nil, nil
	}

	e := event.New(event.TypePublish, ic)
	e.TopicName = t.Name
	e.Offset = len(t.eventLog)
	e.Data = messages
	e.ConsumedEventIDs = consumedEventIDs
	e.PublisherName = publisherName
	e.PublisherType = publisherType
	if tag != nil {
		tag(e)
	}
	t.eventLog = append(t.eventLog, e)
	hook := t.OnPublish
	t.mu.Unlock()

	if hook != nil {
		hook(e)
	}
	return e, nil
}

// CanConsume reports whether consumer has unread publishes on this topic.
// A consumer never registered as a subscriber is treated as having
// consumerOffsets 0, i.e. the full history is "unread" for it.
func (t *Topic) CanConsume(consumer ident.Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consumerOffsets[consumer] < len(t.eventLog)
}

// Consume returns the slice of unread PublishToTopic events for consumer
// and advances its offset to len(eventLog). It is atomic with respect to
// concurrent publishers and consumers on the same topic. A consumer name
// that was never registered as a subscriber still works and yields the
// full history from offset 0 (intentional, for late-binding assistants).
func (t *Topic) Consume(_ context.Context, consumer ident.Node, consumerType string) ([]*event.Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	from := t.consumerOffsets[consumer]
	if from > len(t.eventLog) {
		return nil, fmt.Errorf("topic %q: consumer %q offset %d exceeds log length %d", t.Name, consumer, from, len(t.eventLog))
	}
	out := make([]*event.Event, len(t.eventLog)-from)
	copy(out, t.eventLog[from:])
	t.consumerOffsets[consumer] = len(t.eventLog)
	_ = consumerType
	return out, nil
}

// PeekUnread returns consumer's unread publish events without advancing
// its offset. Used by readiness checks that need to inspect event content
// (e.g. distinguishing human-request asks from user replies) without
// committing to a consume.
func (t *Topic) PeekUnread(consumer ident.Node) []*event.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	from := t.consumerOffsets[consumer]
	if from >= len(t.eventLog) {
		return nil
	}
	out := make([]*event.Event, len(t.eventLog)-from)
	copy(out, t.eventLog[from:])
	return out
}

// Len returns the current length of the publish event log.
func (t *Topic) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.eventLog)
}

// Offset returns the current read offset for consumer (0 if never seen).
func (t *Topic) Offset(consumer ident.Node) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consumerOffsets[consumer]
}

// Reset clears all state. Used by tests and by Restore callers that want
// to rebuild a topic from scratch before replaying history.
func (t *Topic) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.eventLog = nil
	t.consumerOffsets = make(map[ident.Node]int)
}

// Restore replays a stored event into the topic during workflow
// restoration. PublishToTopic events are appended verbatim,
// preserving their recorded offset; ConsumeFromTopic events advance the
// corresponding consumer offset to max(current, offset+1).
func (t *Topic) Restore(e *event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case event.TypePublish:
		if e.Offset != len(t.eventLog) {
			return fmt.Errorf("topic %q: restore publish at offset %d, expected %d", t.Name, e.Offset, len(t.eventLog))
		}
		t.eventLog = append(t.eventLog, e)
	case event.TypeConsume:
		consumer := ident.Node(e.ConsumerName)
		next := e.Offset + 1
		if cur := t.consumerOffsets[consumer]; next > cur {
			t.consumerOffsets[consumer] = next
		}
	default:
		return fmt.Errorf("topic %q: restore: unsupported event type %q", t.Name, e.Type)
	}
	return nil
}
