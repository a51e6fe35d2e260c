package workflow

import (
	"context"
	"fmt"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
)

// restore replays a request's stored event history into a fresh run:
// PublishToTopic events are appended to
// their topic via topic.Restore, ConsumeFromTopic events advance the
// matching consumer offset, and any NodeInvoke whose NodeRespond/NodeFailed
// is absent is re-enqueued — its consume records were never written, so
// its inputs are still unread topic-side and readiness re-fires.
func (w *Workflow) restore(ctx context.Context, ic invoke.Context, r *run) error {
	requestID := ident.RequestID(ic.AssistantRequestID)
	history, err := w.Store.EventsForRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("workflow: restore: loading history: %w", err)
	}

	publishedID := make(map[string]string)
	invoked := make(map[ident.Node]bool)
	settled := make(map[ident.Node]bool)

	for _, e := range history {
		switch e.Type {
		case event.TypePublish:
			t, ok := r.topics[e.TopicName]
			if !ok {
				return &ProtocolError{Reason: fmt.Sprintf("restore: publish on unknown topic %q", e.TopicName)}
			}
			if err := t.Restore(e); err != nil {
				return &ProtocolError{Reason: "restore publish", Cause: err}
			}
			publishedID[offsetKey(e.TopicName, e.Offset)] = e.ID

		case event.TypeConsume:
			t, ok := r.topics[e.TopicName]
			if !ok {
				return &ProtocolError{Reason: fmt.Sprintf("restore: consume on unknown topic %q", e.TopicName)}
			}
			if err := t.Restore(e); err != nil {
				return &ProtocolError{Reason: "restore consume", Cause: err}
			}
			if e.TopicName == HumanRequestName && ident.Node(e.ConsumerName) == FacadeNode {
				if id, ok := publishedID[offsetKey(e.TopicName, e.Offset)]; ok {
					r.human.MarkDelivered(id)
				}
			}

		case event.TypeNodeInvoke:
			invoked[e.NodeName] = true

		case event.TypeNodeRespond, event.TypeNodeFailed:
			settled[e.NodeName] = true
		}
	}

	for name := range invoked {
		if !settled[name] {
			r.queue.enqueue(name)
		}
	}

	for name, n := range w.NodeDefs {
		if invoked[name] {
			continue
		}
		if w.nodeReady(r, n) {
			r.queue.enqueue(name)
		}
	}

	return nil
}

func offsetKey(topicName ident.Topic, offset int) string {
	return fmt.Sprintf("%s@%d", topicName, offset)
}
