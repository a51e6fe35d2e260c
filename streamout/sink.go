// Package streamout fans a workflow's stream-output topic out to
// goa.design/pulse so an external façade can tail partial assistant output
// over Redis instead of only polling the in-process OutputTopic.
package streamout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/message"
	"github.com/goadesign/workflow-engine/streamout/clients/pulse"
)

// Envelope is the wire format written to a Pulse stream entry: one
// PublishToTopic event on the stream-output topic, stripped down to what a
// tailing subscriber needs.
type Envelope struct {
	RequestID string             `json:"request_id"`
	Offset    int                `json:"offset"`
	Timestamp time.Time          `json:"timestamp"`
	Data      []*message.Message `json:"data"`
}

// StreamName derives the Pulse stream name for a request's stream-output
// topic. Exported so a Subscriber opened independently of a Sink can locate
// the same stream.
func StreamName(requestID ident.RequestID) string {
	return fmt.Sprintf("workflow/%s/stream_output", requestID)
}

// Sink publishes stream-output events to Pulse. The zero value is not
// usable; construct with NewSink.
type Sink struct {
	client pulse.Client
}

// NewSink constructs a Sink backed by client.
func NewSink(client pulse.Client) *Sink {
	return &Sink{client: client}
}

// Publish writes e (expected to be a TypePublish event on the stream-output
// topic) as one Pulse stream entry. It is safe to call from the workflow
// dispatch loop's publish hook: failures are returned, never panicked, so
// the caller can decide whether a Pulse outage should fail the request or
// merely be logged.
func (s *Sink) Publish(ctx context.Context, requestID ident.RequestID, e *event.Event) error {
	str, err := s.client.Stream(StreamName(requestID))
	if err != nil {
		return err
	}
	env := Envelope{
		RequestID: string(requestID),
		Offset:    e.Offset,
		Timestamp: time.Now().UTC(),
		Data:      e.Data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("streamout: marshal envelope: %w", err)
	}
	if _, err := str.Add(ctx, "chunk", payload); err != nil {
		return fmt.Errorf("streamout: publish: %w", err)
	}
	return nil
}

// Close releases the sink's client resources.
func (s *Sink) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
