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

// ErrUndeliveredParent is a protocol error: AppendUserInput was called
// with a parent publish event that the façade has not yet consumed.
var ErrUndeliveredParent = fmt.Errorf("topic: append_user_input: parent publish event not delivered to the assistant")

// HumanRequestTopic publishes ask-the-user messages as output events and
// accepts later user replies via AppendUserInput. Consumers are the
// façade (for the ask, which is an Output-style publish) and any
// downstream node (for the user's reply).
type HumanRequestTopic struct {
	*Topic

	// FacadeConsumer is the consumer name whose Consume calls mark a
	// publish event as "delivered to the assistant", satisfying the
	// precondition for AppendUserInput.
	FacadeConsumer ident.Node

	deliveredMu sync.Mutex
	delivered   map[string]bool
}

// NewHumanRequest constructs a HumanRequestTopic.
func NewHumanRequest(name ident.Topic, facadeConsumer ident.Node) *HumanRequestTopic {
	return &HumanRequestTopic{
		Topic:          New(name, nil),
		FacadeConsumer: facadeConsumer,
		delivered:      make(map[string]bool),
	}
}

// AskUser publishes an ask-the-user message as an Output-style event,
// tagged HumanAsk so readiness evaluation for downstream subscribers (who
// wait for the user's reply, not the ask itself) can filter it out.
func (h *HumanRequestTopic) AskUser(ctx context.Context, ic invoke.Context, publisherName, publisherType string, msg *message.Message) (*event.Event, error) {
	return h.publishTagged(ctx, ic, publisherName, publisherType, []*message.Message{msg}, nil, func(e *event.Event) {
		e.HumanAsk = true
	})
}

// HasUnreadReply reports whether consumer has at least one unread publish
// on this topic that is a user reply rather than an ask: downstream nodes
// are ready only once a reply has arrived, not on the ask alone.
func (h *HumanRequestTopic) HasUnreadReply(consumer ident.Node) bool {
	for _, e := range h.PeekUnread(consumer) {
		if !e.HumanAsk {
			return true
		}
	}
	return false
}

// Consume overrides Topic.Consume to additionally record, for the façade
// consumer only, which publish events have now been delivered to the
// assistant — the precondition AppendUserInput enforces.
func (h *HumanRequestTopic) Consume(ctx context.Context, consumer ident.Node, consumerType string) ([]*event.Event, error) {
	events, err := h.Topic.Consume(ctx, consumer, consumerType)
	if err != nil {
		return nil, err
	}
	if consumer == h.FacadeConsumer {
		h.deliveredMu.Lock()
		for _, e := range events {
			h.delivered[e.ID] = true
		}
		h.deliveredMu.Unlock()
	}
	return events, nil
}

// AppendUserInput writes a PublishToTopic event carrying the user's reply,
// with ConsumedEventIDs = [parent.ID]. It is only valid once parent has
// been delivered to the assistant (observed via Consume by
// FacadeConsumer); otherwise it fails with ErrUndeliveredParent, a
// protocol error, and no state changes.
func (h *HumanRequestTopic) AppendUserInput(ctx context.Context, ic invoke.Context, parent *event.Event, messages []*message.Message) (*event.Event, error) {
	if parent == nil {
		return nil, fmt.Errorf("topic: append_user_input: parent event is required")
	}
	h.deliveredMu.Lock()
	ok := h.delivered[parent.ID]
	h.deliveredMu.Unlock()
	if !ok {
		return nil, ErrUndeliveredParent
	}
	return h.Publish(ctx, ic, "user", "human", messages, []string{parent.ID})
}

// MarkDelivered is used by workflow restoration to replay delivery state
// for events consumed by the façade before a crash, since Consume is not
// re-invoked during restore (restore rebuilds offsets directly; see
// Topic.Restore).
func (h *HumanRequestTopic) MarkDelivered(eventID string) {
	h.deliveredMu.Lock()
	h.delivered[eventID] = true
	h.deliveredMu.Unlock()
}
