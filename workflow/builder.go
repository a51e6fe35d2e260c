package workflow

import (
	"fmt"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/telemetry"
	"github.com/goadesign/workflow-engine/topic"
)

// Builder assembles a Workflow via a fluent pattern: the subscription DSL
// (and the graph around it) is constructed programmatically rather than
// parsed. All validation errors discovered across the build are collected
// and returned together as a single *GraphError from Build.
type Builder struct {
	name    string
	mode    Mode
	workers int
	store   event.Store

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
	stream  StreamSink

	topicDefs map[ident.Topic]topicDef
	nodes     map[ident.Node]*node.Node

	errs []error
}

// NewBuilder constructs a Builder. The four reserved topics
// (agent_input_topic, agent_output_topic, agent_stream_output_topic,
// human_request_topic) are implicitly known to every workflow and need
// not (and may not) be added via AddTopic.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:      name,
		topicDefs: make(map[ident.Topic]topicDef),
		nodes:     make(map[ident.Node]*node.Node),
	}
}

// WithStore sets the event store the built workflow will persist through.
func (b *Builder) WithStore(store event.Store) *Builder {
	b.store = store
	return b
}

// WithMode selects Cooperative or Parallel dispatch. workers is ignored
// in Cooperative mode.
func (b *Builder) WithMode(mode Mode, workers int) *Builder {
	b.mode = mode
	b.workers = workers
	return b
}

// WithTelemetry installs the Logger/Metrics/Tracer used while driving the
// workflow. Any of the three may be nil, in which case a no-op
// implementation is used.
func (b *Builder) WithTelemetry(logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) *Builder {
	b.logger, b.metrics, b.tracer = logger, metrics, tracer
	return b
}

// WithStreamSink installs a fan-out target for stream-output publishes
// (see streamout.Sink). Optional; nil (the default) means stream-output
// publishes are only observable via the in-process OutputTopic.
func (b *Builder) WithStreamSink(sink StreamSink) *Builder {
	b.stream = sink
	return b
}

// AddTopic registers a non-reserved topic. admission may be nil (treated
// as AlwaysAdmit).
func (b *Builder) AddTopic(name ident.Topic, admission topic.AdmissionPredicate) *Builder {
	if isReserved(name) {
		b.errs = append(b.errs, fmt.Errorf("workflow: topic %q is a reserved name", name))
		return b
	}
	if _, exists := b.topicDefs[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("workflow: duplicate topic %q", name))
		return b
	}
	b.topicDefs[name] = topicDef{name: name, admission: admission}
	return b
}

// AddNode registers a node. Subscription and publish_to topic references
// are validated at Build time, once the full topic set is known.
func (b *Builder) AddNode(n *node.Node) *Builder {
	if n == nil {
		b.errs = append(b.errs, fmt.Errorf("workflow: nil node"))
		return b
	}
	if n.Name == "" {
		b.errs = append(b.errs, fmt.Errorf("workflow: node with empty name"))
		return b
	}
	if _, exists := b.nodes[n.Name]; exists {
		b.errs = append(b.errs, fmt.Errorf("workflow: duplicate node name %q", n.Name))
		return b
	}
	if n.Command == nil {
		b.errs = append(b.errs, fmt.Errorf("workflow: node %q has no command", n.Name))
	}
	b.nodes[n.Name] = n
	return b
}

// Build validates the graph and, if valid, constructs the runnable
// Workflow: the inverse topic_to_subscribers index and the function-spec
// attachment pass.
func (b *Builder) Build() (*Workflow, error) {
	errs := append([]error(nil), b.errs...)

	known := func(t ident.Topic) bool {
		if isReserved(t) {
			return true
		}
		_, ok := b.topicDefs[t]
		return ok
	}

	for _, n := range b.nodes {
		for _, t := range subscription.Topics(n.Subscription) {
			if !known(t) {
				errs = append(errs, fmt.Errorf("workflow: node %q subscribes to unknown topic %q", n.Name, t))
			}
		}
		for _, t := range n.PublishTo {
			if !known(t) {
				errs = append(errs, fmt.Errorf("workflow: node %q publishes to unknown topic %q", n.Name, t))
			}
		}
	}

	if b.store == nil {
		errs = append(errs, fmt.Errorf("workflow: no event store configured"))
	}

	if len(errs) > 0 {
		return nil, &GraphError{Errors: errs}
	}

	topicToSubscribers := make(map[ident.Topic][]ident.Node)
	for _, n := range b.nodes {
		for _, t := range subscription.Topics(n.Subscription) {
			topicToSubscribers[t] = append(topicToSubscribers[t], n.Name)
		}
	}

	attachFunctionSpecs(b.nodes, topicToSubscribers)

	logger, metrics, tracer := b.logger, b.metrics, b.tracer
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}

	workers := b.workers
	if b.mode == Cooperative || workers < 1 {
		workers = 1
	}

	return &Workflow{
		Name:               b.name,
		Mode:               b.mode,
		Workers:            workers,
		Store:              b.store,
		NodeDefs:           b.nodes,
		topicDefs:          b.topicDefs,
		topicToSubscribers: topicToSubscribers,
		Logger:             logger,
		Metrics:            metrics,
		Tracer:             tracer,
		Stream:             b.stream,
		runs:               make(map[ident.RequestID]*run),
	}, nil
}

func isReserved(name ident.Topic) bool {
	switch name {
	case InputTopic, OutputTopic, StreamOutputName, HumanRequestName:
		return true
	default:
		return false
	}
}

// attachFunctionSpecs is the one build-time topology leak: for every node
// whose publish_to includes a topic subscribed to by a function-call node
// (one advertising FunctionSpecs), the function-call node's specs are
// attached so downstream language-model calls can discover them. The
// publisher's Type is not consulted: every publisher gets them, not only
// LLM-caller nodes. Discovered specs are recorded on the Node so
// the dispatch loop can stamp outbound messages without recomputing the
// topology scan on every publish.
func attachFunctionSpecs(nodes map[ident.Node]*node.Node, topicToSubscribers map[ident.Topic][]ident.Node) {
	for _, publisher := range nodes {
		var discovered []node.FunctionSpec
		for _, t := range publisher.PublishTo {
			for _, subscriberName := range topicToSubscribers[t] {
				subscriber := nodes[subscriberName]
				if subscriber == nil || len(subscriber.FunctionSpecs) == 0 {
					continue
				}
				discovered = append(discovered, subscriber.FunctionSpecs...)
			}
		}
		publisher.DiscoveredFunctions = discovered
	}
}
