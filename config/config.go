// Package config loads a declarative workflow topology — topics, named
// admission predicates, nodes, subscriptions and publish-to sets — from
// YAML and compiles it down to the workflow.Builder fluent API. It exists
// so a CLI or test fixture can describe a graph as data; the builder
// remains the canonical, type-safe construction path every topology
// document is translated into.
//
// Commands cannot be expressed in YAML, so a Document's nodes are matched
// against a caller-supplied CommandRegistry of node.Command
// implementations by name. A node named in the document with no matching
// registry entry is a load error.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/topic"
	"github.com/goadesign/workflow-engine/workflow"
)

// Document is the top-level YAML shape.
//
//	name: support-triage
//	mode: parallel
//	workers: 4
//	topics:
//	  - name: classification_topic
//	    admission: non_empty
//	nodes:
//	  - name: classifier
//	    subscribe:
//	      topic: agent_input_topic
//	    publish_to: [classification_topic]
//	  - name: responder
//	    subscribe:
//	      and:
//	        - topic: classification_topic
//	        - topic: agent_input_topic
//	    publish_to: [agent_output_topic]
//	    functions:
//	      - name: get_weather
//	        description: Look up current weather for a city
//	        parameters:
//	          type: object
//	          properties:
//	            city: {type: string}
//	          required: [city]
type Document struct {
	Name    string     `yaml:"name"`
	Mode    string     `yaml:"mode"`
	Workers int        `yaml:"workers"`
	Topics  []TopicDoc `yaml:"topics"`
	Nodes   []NodeDoc  `yaml:"nodes"`
}

// TopicDoc declares a non-reserved topic and the name of the admission
// predicate it should use, looked up in the AdmissionRegistry passed to
// Load.
type TopicDoc struct {
	Name      string `yaml:"name"`
	Admission string `yaml:"admission"`
}

// NodeDoc declares one node: its subscription expression, publish-to set
// and (optionally) the function specs it advertises as a function-calling
// participant.
type NodeDoc struct {
	Name      string            `yaml:"name"`
	Type      string            `yaml:"type"`
	Subscribe SubscriptionDoc   `yaml:"subscribe"`
	PublishTo []string          `yaml:"publish_to"`
	Functions []FunctionSpecDoc `yaml:"functions"`
}

// SubscriptionDoc is the recursive subscription-expression shape: exactly
// one of Topic, And, or Or must be set.
type SubscriptionDoc struct {
	Topic string            `yaml:"topic"`
	And   []SubscriptionDoc `yaml:"and"`
	Or    []SubscriptionDoc `yaml:"or"`
}

// FunctionSpecDoc is the YAML shape of a node.FunctionSpec. Parameters is
// a raw JSON-Schema document, decoded into map[string]any.
type FunctionSpecDoc struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters"`
}

// AdmissionRegistry maps the names a TopicDoc may reference to the
// predicate they select. When Compile is given a nil registry it uses
// DefaultAdmissionRegistry ("non_empty" and "always"); a non-nil registry
// is used as is, without the defaults merged in.
type AdmissionRegistry map[string]topic.AdmissionPredicate

// DefaultAdmissionRegistry returns a registry with the two admission
// predicates the topic package ships.
func DefaultAdmissionRegistry() AdmissionRegistry {
	return AdmissionRegistry{
		"always":    topic.AlwaysAdmit,
		"non_empty": topic.NonEmpty,
	}
}

// CommandRegistry maps node names appearing in a Document to the command
// that should run when the node fires. Every node named in the document
// must have an entry; Compile (and so Load) returns an error naming the
// first node that doesn't.
type CommandRegistry map[string]node.Command

// ParseFile reads path and parses it as a Document, without compiling it.
// Callers that need to inspect node names before building a
// CommandRegistry (workflowctl does) call this, then Compile.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &doc, nil
}

// Load reads path, parses it as a Document, and compiles it into a
// workflow.Builder seeded with topics and nodes. The caller still must
// call WithStore (and any of WithMode/WithTelemetry/WithStreamSink the
// document's Mode/Workers fields don't already cover) before Build.
func Load(path string, admissions AdmissionRegistry, commands CommandRegistry) (*workflow.Builder, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(doc, admissions, commands)
}

// Compile translates an already-parsed Document into a workflow.Builder.
func Compile(doc *Document, admissions AdmissionRegistry, commands CommandRegistry) (*workflow.Builder, error) {
	if admissions == nil {
		admissions = DefaultAdmissionRegistry()
	}

	b := workflow.NewBuilder(doc.Name)

	mode := workflow.Cooperative
	if doc.Mode == "parallel" {
		mode = workflow.Parallel
	}
	b.WithMode(mode, doc.Workers)

	for _, td := range doc.Topics {
		var pred topic.AdmissionPredicate
		if td.Admission != "" {
			p, ok := admissions[td.Admission]
			if !ok {
				return nil, fmt.Errorf("config: topic %q references unknown admission predicate %q", td.Name, td.Admission)
			}
			pred = p
		}
		b.AddTopic(ident.Topic(td.Name), pred)
	}

	for _, nd := range doc.Nodes {
		expr, err := compileSubscription(nd.Subscribe)
		if err != nil {
			return nil, fmt.Errorf("config: node %q: %w", nd.Name, err)
		}

		cmd, ok := commands[nd.Name]
		if !ok {
			return nil, fmt.Errorf("config: node %q has no registered command", nd.Name)
		}

		publishTo := make([]ident.Topic, len(nd.PublishTo))
		for i, t := range nd.PublishTo {
			publishTo[i] = ident.Topic(t)
		}

		specs := make([]node.FunctionSpec, len(nd.Functions))
		for i, fd := range nd.Functions {
			specs[i] = node.FunctionSpec{
				Name:        fd.Name,
				Description: fd.Description,
				Parameters:  fd.Parameters,
			}
		}

		nodeType := nd.Type
		if nodeType == "" {
			nodeType = "llm_caller"
		}

		b.AddNode(&node.Node{
			ID:            nd.Name,
			Name:          ident.Node(nd.Name),
			Type:          nodeType,
			Subscription:  expr,
			PublishTo:     publishTo,
			Command:       cmd,
			FunctionSpecs: specs,
		})
	}

	return b, nil
}

// compileSubscription recursively builds a subscription.Expr from a
// SubscriptionDoc. Exactly one of Topic/And/Or must be populated.
func compileSubscription(doc SubscriptionDoc) (subscription.Expr, error) {
	switch {
	case doc.Topic != "":
		return subscription.Topic(ident.Topic(doc.Topic)), nil
	case len(doc.And) > 0:
		exprs := make([]subscription.Expr, len(doc.And))
		for i, child := range doc.And {
			e, err := compileSubscription(child)
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		return subscription.AllOf(exprs[0], exprs[1:]...), nil
	case len(doc.Or) > 0:
		exprs := make([]subscription.Expr, len(doc.Or))
		for i, child := range doc.Or {
			e, err := compileSubscription(child)
			if err != nil {
				return nil, err
			}
			exprs[i] = e
		}
		return subscription.AnyOf(exprs[0], exprs[1:]...), nil
	default:
		return nil, fmt.Errorf("subscription must set one of topic, and, or")
	}
}
