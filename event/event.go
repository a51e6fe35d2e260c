// Package event defines the typed event sum type produced by the workflow
// engine and the append-only store contract events are persisted through.
//
// A single discriminated Event struct replaces a runtime class hierarchy:
// every event carries a Type discriminator plus the fields relevant to
// that type. There is no dynamic dispatch beyond switching on Type.
package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

// Type discriminates the Event variants.
type Type string

const (
	// TypePublish records a successful publish to a topic (PublishToTopic).
	TypePublish Type = "publish_to_topic"

	// TypeConsume records a consumer draining unread publishes from a
	// topic (ConsumeFromTopic).
	TypeConsume Type = "consume_from_topic"

	// TypeNodeInvoke records that a node's command is about to run.
	TypeNodeInvoke Type = "node_invoke"

	// TypeNodeRespond records that a node's command completed
	// successfully.
	TypeNodeRespond Type = "node_respond"

	// TypeNodeFailed records that a node's command returned an error.
	TypeNodeFailed Type = "node_failed"

	// TypeWorkflowInvoke records the start of a fresh workflow run.
	TypeWorkflowInvoke Type = "workflow_invoke"

	// TypeWorkflowRespond records that a workflow run drained its ready
	// queue without error.
	TypeWorkflowRespond Type = "workflow_respond"

	// TypeWorkflowFailed records that a workflow run terminated with an
	// unrecoverable error (protocol violation or explicit cancellation).
	TypeWorkflowFailed Type = "workflow_failed"
)

// Event is the sum type for everything the engine records. Fields not
// meaningful for a given Type are left at their zero value; see the
// per-Type contracts below.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Type discriminates the variant; see the Type* constants.
	Type Type `json:"type"`

	// Timestamp is the monotonic-nanosecond creation time, strictly
	// ordering events produced by the same clock.
	Timestamp int64 `json:"timestamp"`

	// InvokeContext is the request-scoped correlation bundle attached to
	// every event.
	InvokeContext invoke.Context `json:"invoke_context"`

	// --- TypePublish / TypeConsume fields ---

	// TopicName is the topic this event occurred on.
	TopicName ident.Topic `json:"topic_name,omitempty"`

	// Offset is the publish offset: assigned at publish time for
	// TypePublish, and the publish offset being consumed for
	// TypeConsume.
	Offset int `json:"offset"`

	// Data carries the published/consumed messages in order.
	Data []*message.Message `json:"data,omitempty"`

	// ConsumedEventIDs lists the causal-parent event IDs this publish
	// descends from (TypePublish only).
	ConsumedEventIDs []string `json:"consumed_event_ids,omitempty"`

	// PublisherName/PublisherType identify the publisher (TypePublish).
	PublisherName string `json:"publisher_name,omitempty"`
	PublisherType string `json:"publisher_type,omitempty"`

	// HumanAsk marks a TypePublish event on the human-request topic as an
	// ask-the-user publication rather than a user reply. Downstream
	// subscribers of the human-request topic are ready only on replies;
	// the façade alone observes asks.
	HumanAsk bool `json:"human_ask,omitempty"`

	// ConsumerName/ConsumerType identify the consumer (TypeConsume).
	ConsumerName string `json:"consumer_name,omitempty"`
	ConsumerType string `json:"consumer_type,omitempty"`

	// --- Node/Workflow lifecycle fields ---

	// NodeID/NodeName/NodeType identify the node (TypeNode*).
	NodeID   string     `json:"node_id,omitempty"`
	NodeName ident.Node `json:"node_name,omitempty"`
	NodeType string     `json:"node_type,omitempty"`

	// SubscribedTopics/PublishToTopics snapshot the node's wiring at
	// dispatch time (TypeNode*).
	SubscribedTopics []ident.Topic `json:"subscribed_topics,omitempty"`
	PublishToTopics  []ident.Topic `json:"publish_to_topics,omitempty"`

	// InputData lists the ConsumeFromTopic events assembled as the
	// command's input (TypeNodeInvoke).
	InputData []*Event `json:"input_data,omitempty"`

	// OutputData carries the command's result messages (TypeNodeRespond).
	// The engine leaves it empty on TypeWorkflowRespond.
	OutputData []*message.Message `json:"output_data,omitempty"`

	// Error carries the failure reason (TypeNodeFailed,
	// TypeWorkflowFailed).
	Error string `json:"error,omitempty"`
}

// New returns an Event with a fresh ID and a Timestamp, leaving all other
// fields at their zero value for the caller to populate.
func New(typ Type, ic invoke.Context) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          typ,
		Timestamp:     nextTimestamp(),
		InvokeContext: ic,
	}
}

var (
	timestampMu   sync.Mutex
	lastTimestamp int64
)

// nextTimestamp mirrors message.nextTimestamp: it guarantees a strictly
// increasing sequence even when the wall clock has coarser resolution than
// the rate events are created, which causal-ancestry ordering requires to
// be well-defined.
func nextTimestamp() int64 {
	timestampMu.Lock()
	defer timestampMu.Unlock()
	t := clockNow()
	if t <= lastTimestamp {
		t = lastTimestamp + 1
	}
	lastTimestamp = t
	return t
}

var clockNow = func() int64 { return nowNano() }

// Clone returns a deep-enough copy of the event suitable for storing in an
// in-memory event log without aliasing caller-owned slices.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.ConsumedEventIDs = append([]string(nil), e.ConsumedEventIDs...)
	c.SubscribedTopics = append([]ident.Topic(nil), e.SubscribedTopics...)
	c.PublishToTopics = append([]ident.Topic(nil), e.PublishToTopics...)
	c.Data = append([]*message.Message(nil), e.Data...)
	c.OutputData = append([]*message.Message(nil), e.OutputData...)
	c.InputData = append([]*Event(nil), e.InputData...)
	return &c
}

// MarshalEvent encodes an event as canonical JSON. It exists alongside
// json.Marshal so callers that want the Store's canonical wire format
// (used by the Redis backend) do not depend on encoding/json directly.
func MarshalEvent(e *Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("event: marshal %s: %w", e.Type, err)
	}
	return b, nil
}

// UnmarshalEvent decodes an event previously produced by MarshalEvent.
func UnmarshalEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("event: unmarshal: %w", err)
	}
	return &e, nil
}
