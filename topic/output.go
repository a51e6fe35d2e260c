package topic

import (
	"context"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

// OutputTopic restricts a Topic to the single reserved output channel: the
// assistant façade is its only permitted consumer, and it may carry
// streaming/partial messages.
//
// OutputTopic does not change the underlying offset/admission mechanics;
// it is a thin variant that names the façade consumer so Drain callers do
// not need to repeat it. Consume itself does not check the consumer name.
type OutputTopic struct {
	*Topic

	// FacadeConsumer is the consumer name Drain reads as.
	FacadeConsumer ident.Node
}

// NewOutput constructs an OutputTopic. facadeConsumer names the only
// consumer permitted to drain it.
func NewOutput(name ident.Topic, facadeConsumer ident.Node) *OutputTopic {
	return &OutputTopic{Topic: New(name, nil), FacadeConsumer: facadeConsumer}
}

// PublishFinal publishes a single, complete assistant message.
func (o *OutputTopic) PublishFinal(ctx context.Context, ic invoke.Context, publisherName, publisherType string, msg *message.Message, consumedEventIDs []string) (*event.Event, error) {
	return o.Publish(ctx, ic, publisherName, publisherType, []*message.Message{msg}, consumedEventIDs)
}

// PublishStream publishes a finite, already-materialized sequence of
// partial messages as a single PublishToTopic event. This implementation
// coalesces the whole chunk sequence into one event's Data, which keeps
// the offset/consumer model unchanged and lets a consumer replay a
// partial stream atomically after a restore.
func (o *OutputTopic) PublishStream(ctx context.Context, ic invoke.Context, publisherName, publisherType string, chunks []*message.Message, consumedEventIDs []string) (*event.Event, error) {
	return o.Publish(ctx, ic, publisherName, publisherType, chunks, consumedEventIDs)
}

// Drain is sugar for Consume(ctx, o.FacadeConsumer, "facade") used by the
// assistant façade to read newly published output.
func (o *OutputTopic) Drain(ctx context.Context) ([]*event.Event, error) {
	return o.Consume(ctx, o.FacadeConsumer, "facade")
}
