// Package workflow builds the node/topic graph and drives the dispatch
// loop that is the engine's reason for existing: deciding when a node is
// ready, assembling its input via the ancestor event graph, invoking its
// command, and publishing outcomes.
package workflow

import (
	"context"
	"sync"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/telemetry"
	"github.com/goadesign/workflow-engine/topic"
)

// StreamSink fans a request's stream-output publishes out to an external
// transport (the streamout package backs this with goa.design/pulse). It is
// defined here, not imported, so the workflow package stays decoupled from
// any particular transport; streamout.Sink satisfies it structurally.
type StreamSink interface {
	Publish(ctx context.Context, requestID ident.RequestID, e *event.Event) error
}

// Mode selects the dispatch loop's concurrency model.
type Mode int

const (
	// Cooperative runs the dispatch loop on a single goroutine: one node
	// at a time to completion. The command may still perform I/O; the
	// loop remains the sole mutator of topics, offsets and the ready
	// queue.
	Cooperative Mode = iota

	// Parallel runs Workers goroutines dequeuing nodes concurrently.
	// Topics serialize their own mutations; an in-flight set enforces at
	// most one executing instance per node name (P5).
	Parallel
)

// topicDef is the static, request-independent blueprint for a
// non-reserved topic: its name and admission predicate. Per-request topic
// *state* (the event log, consumer offsets) is instantiated fresh for
// every assistant_request_id by run, since a request's offsets must not
// leak into another's: every workflow carries its own topic map, and the
// event store is injected at construction.
type topicDef struct {
	name      ident.Topic
	admission topic.AdmissionPredicate
}

// Workflow is the built, runnable graph blueprint: node definitions
// (stateless — nodes themselves hold no mutable per-request state),
// topic definitions, and the reserved topics that form the
// external contract. A Workflow is shared across requests; per-request
// execution state (topic instances, the ready queue, the in-flight node
// set) lives in a run, created lazily per assistant_request_id.
type Workflow struct {
	Name    string
	Mode    Mode
	Workers int

	Store event.Store

	NodeDefs  map[ident.Node]*node.Node
	topicDefs map[ident.Topic]topicDef

	// topicToSubscribers is the inverse index built at Build time: for
	// each topic, the nodes whose subscription expression references it.
	// Static across requests since subscriptions are part of the node
	// definition, not per-run state.
	topicToSubscribers map[ident.Topic][]ident.Node

	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer

	// Stream, when non-nil, receives every stream-output publish in
	// addition to the in-process OutputTopic the façade polls.
	Stream StreamSink

	runsMu sync.Mutex
	runs   map[ident.RequestID]*run
}

// run holds one assistant_request_id's execution state: fresh topic
// instances (so offsets never leak across requests), the ready queue,
// and the in-flight guard enforcing at most one executing instance per
// node name (P5).
type run struct {
	topics map[ident.Topic]*topic.Topic
	input  *topic.Topic
	output *topic.OutputTopic
	stream *topic.OutputTopic
	human  *topic.HumanRequestTopic

	queue *readyQueue

	inFlightMu sync.Mutex
	inFlight   map[ident.Node]bool
}

// runFor returns the run for requestID, creating and wiring it (fresh
// topic instances, OnPublish readiness hooks) on first use.
func (w *Workflow) runFor(requestID ident.RequestID) *run {
	w.runsMu.Lock()
	defer w.runsMu.Unlock()

	if r, ok := w.runs[requestID]; ok {
		return r
	}

	input := topic.New(InputTopic, nil)
	output := topic.NewOutput(OutputTopic, FacadeNode)
	stream := topic.NewOutput(StreamOutputName, FacadeNode)
	human := topic.NewHumanRequest(HumanRequestName, FacadeNode)

	topics := map[ident.Topic]*topic.Topic{
		InputTopic:       input,
		OutputTopic:      output.Topic,
		StreamOutputName: stream.Topic,
		HumanRequestName: human.Topic,
	}
	for name, def := range w.topicDefs {
		topics[name] = topic.New(name, def.admission)
	}

	r := &run{
		topics:   topics,
		input:    input,
		output:   output,
		stream:   stream,
		human:    human,
		queue:    newReadyQueue(),
		inFlight: make(map[ident.Node]bool),
	}

	for name, t := range topics {
		name, t := name, t
		t.OnPublish = func(e *event.Event) {
			w.onPublish(r, requestID, name)(e)
		}
	}

	w.runs[requestID] = r
	return r
}

// onPublish re-evaluates readiness for every subscriber of the published
// topic and enqueues those newly ready. Publishes to the reserved
// output/stream topics bypass subscriber checks entirely: only the
// assistant façade consumes them. A stream-output publish is additionally
// fanned out to Stream, when configured.
func (w *Workflow) onPublish(r *run, requestID ident.RequestID, topicName ident.Topic) func(e *event.Event) {
	return func(e *event.Event) {
		if topicName == StreamOutputName && w.Stream != nil {
			if err := w.Stream.Publish(context.Background(), requestID, e); err != nil {
				w.Logger.Error(context.Background(), "stream sink publish failed", "request_id", string(requestID), "error", err)
			}
		}
		if topicName == OutputTopic || topicName == StreamOutputName {
			return
		}
		for _, name := range w.topicToSubscribers[topicName] {
			n := w.NodeDefs[name]
			if n == nil {
				continue
			}
			if w.nodeReady(r, n) {
				r.queue.enqueue(name)
			}
		}
	}
}

// nodeReady evaluates a node's subscription expression against current
// topic freshness, special-casing the human-request topic: a downstream
// subscriber is ready only once a user reply (not the ask itself) is
// unread for it, since the façade — not the node — is the intended
// consumer of asks.
func (w *Workflow) nodeReady(r *run, n *node.Node) bool {
	names := subscription.Topics(n.Subscription)
	fresh := make(map[ident.Topic]bool, len(names))
	for _, name := range names {
		t, ok := r.topics[name]
		if !ok {
			continue
		}
		if name == HumanRequestName {
			fresh[name] = r.human.HasUnreadReply(n.Name)
			continue
		}
		fresh[name] = t.CanConsume(n.Name)
	}
	return subscription.Evaluate(n.Subscription, fresh)
}
