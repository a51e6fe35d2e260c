package node

import (
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/message"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/topic"
)

// FunctionSpec describes a callable a node advertises for upstream
// LLM-caller nodes to discover at workflow build time. It is the
// same shape as message.FunctionDescriptor, the form the workflow engine
// attaches to outbound messages at build time.
type FunctionSpec = message.FunctionDescriptor

// Node is a named participant: a subscription expression, a publish-to
// set and a command, with a readiness predicate derived from the two.
type Node struct {
	// ID is a unique identifier for this node instance (distinct from
	// Name, which is the stable, human-chosen participant name used in
	// subscriptions and event ConsumerName/PublisherName fields).
	ID   string
	Name ident.Node
	Type string

	// Subscription is the expression evaluated against "topics with new
	// messages for this node" to determine readiness.
	Subscription subscription.Expr

	// PublishTo lists the topics the node's command results are, by
	// default, broadcast to. An empty list is permitted: the node's
	// results are then observed only through the event store.
	PublishTo []ident.Topic

	Command Command

	// FunctionSpecs, when non-empty, is advertised to nodes that publish
	// into a topic this node subscribes to; the workflow discovers it at
	// build time.
	FunctionSpecs []FunctionSpec

	// DiscoveredFunctions is populated once, at workflow build time, with
	// the FunctionSpecs of every function-call node subscribed to a topic
	// in this node's publish_to set. The dispatch loop stamps it onto
	// outbound messages.
	DiscoveredFunctions []FunctionSpec
}

// Ready reports whether node's subscription expression is satisfied given
// the current state of topics: it evaluates the node's subscription
// expression against the set of topics it references that currently have
// unread messages for it.
func (n *Node) Ready(topics map[ident.Topic]*topic.Topic) bool {
	fresh := make(map[ident.Topic]bool, len(n.referencedTopics(topics)))
	for _, name := range n.referencedTopics(topics) {
		t, ok := topics[name]
		if !ok {
			continue
		}
		fresh[name] = t.CanConsume(n.Name)
	}
	return subscription.Evaluate(n.Subscription, fresh)
}

// referencedTopics returns the set of topic names appearing in the node's
// subscription expression, restricted to topics actually present in the
// supplied map (a defensive measure against stale subscriptions
// referencing topics removed from the workflow).
func (n *Node) referencedTopics(topics map[ident.Topic]*topic.Topic) []ident.Topic {
	all := subscription.Topics(n.Subscription)
	out := make([]ident.Topic, 0, len(all))
	for _, name := range all {
		if _, ok := topics[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
