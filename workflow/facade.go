package workflow

import (
	"context"
	"fmt"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

// PendingAsks drains and returns any unread ask-the-user events published
// on the human-request topic, marking them delivered so a later Reply
// referencing one of them satisfies AppendUserInput's precondition. It is
// the assistant façade's side of the human-in-the-loop handshake: a caller
// (a CLI, an HTTP handler) surfaces these to the end user and, once a
// response is available, calls Reply with the chosen ask event.
func (w *Workflow) PendingAsks(ctx context.Context, ic invoke.Context) ([]*event.Event, error) {
	requestID := ident.RequestID(ic.AssistantRequestID)
	r := w.runFor(requestID)

	asks, err := r.human.Consume(ctx, FacadeNode, "facade")
	if err != nil {
		return nil, &ProtocolError{Reason: "consume human_request_topic", Cause: err}
	}
	var pending []*event.Event
	for _, e := range asks {
		ce := event.New(event.TypeConsume, ic)
		ce.TopicName = HumanRequestName
		ce.Offset = e.Offset
		ce.ConsumerName = string(FacadeNode)
		ce.ConsumerType = "facade"
		if err := w.Store.Append(ctx, ce); err != nil {
			return nil, err
		}
		if e.HumanAsk {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Reply answers one outstanding ask with the user's messages. parent must
// be an event previously returned by PendingAsks for this request;
// otherwise it fails with topic.ErrUndeliveredParent. The reply is
// recorded as a PublishToTopic event and, since topic publish hooks drive
// readiness synchronously, any node waiting on the reply is enqueued
// before Reply returns — call Drive next to run it.
func (w *Workflow) Reply(ctx context.Context, ic invoke.Context, parent *event.Event, messages []*message.Message) error {
	if parent == nil {
		return fmt.Errorf("workflow: reply: parent ask event is required")
	}
	requestID := ident.RequestID(ic.AssistantRequestID)
	r := w.runFor(requestID)

	pub, err := r.human.AppendUserInput(ctx, ic, parent, messages)
	if err != nil {
		return &ProtocolError{Reason: "append_user_input", Cause: err}
	}
	if pub == nil {
		return nil
	}
	return w.Store.Append(ctx, pub)
}
