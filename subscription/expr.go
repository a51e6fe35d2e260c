// Package subscription implements the AND/OR subscription expression DSL
// nodes use to declare readiness conditions over topics.
//
// Expressions are a small algebraic data type with pure evaluators; there
// is no parser because trees are constructed programmatically via the
// fluent builders in builder.go. OR-branches do not wait for slower
// branches: a node fires as soon as any branch is satisfied, and whatever
// messages happen to be unread on the other branches at dispatch time are
// included. This is a deliberate latency-over-determinism choice.
package subscription

import "github.com/goadesign/workflow-engine/ident"

// Expr is the marker interface implemented by every expression node:
// Topic, And, and Or.
type Expr interface {
	// eval reports whether this expression is satisfied given the set of
	// topic names that currently have unread events for the node being
	// checked.
	eval(fresh map[ident.Topic]bool) bool

	// collectTopics appends every topic reference in this subtree to
	// out, used by Topics to build the inverse index.
	collectTopics(out map[ident.Topic]struct{})
}

// topicExpr is a leaf referencing a single topic.
type topicExpr struct {
	name ident.Topic
}

// Topic returns a leaf expression satisfied when name has unread events.
func Topic(name ident.Topic) Expr {
	return topicExpr{name: name}
}

func (t topicExpr) eval(fresh map[ident.Topic]bool) bool {
	return fresh[t.name]
}

func (t topicExpr) collectTopics(out map[ident.Topic]struct{}) {
	out[t.name] = struct{}{}
}

// andExpr is satisfied only when both children are satisfied.
type andExpr struct {
	left, right Expr
}

// And returns an expression satisfied when both l and r are satisfied. A
// node subscribed via And(A,B) does not fire until both topics have new
// events for that node.
func And(l, r Expr) Expr {
	return andExpr{left: l, right: r}
}

func (a andExpr) eval(fresh map[ident.Topic]bool) bool {
	return a.left.eval(fresh) && a.right.eval(fresh)
}

func (a andExpr) collectTopics(out map[ident.Topic]struct{}) {
	a.left.collectTopics(out)
	a.right.collectTopics(out)
}

// orExpr is satisfied when either child is satisfied.
type orExpr struct {
	left, right Expr
}

// Or returns an expression satisfied when l or r (or both) is satisfied.
// A node subscribed via Or(A,B) fires as soon as A has a new event even
// if B is silent; the produced input then contains A's message and no B
// message.
func Or(l, r Expr) Expr {
	return orExpr{left: l, right: r}
}

func (o orExpr) eval(fresh map[ident.Topic]bool) bool {
	return o.left.eval(fresh) || o.right.eval(fresh)
}

func (o orExpr) collectTopics(out map[ident.Topic]struct{}) {
	o.left.collectTopics(out)
	o.right.collectTopics(out)
}

// Evaluate reports whether expr is satisfied given fresh, the set of
// topic names that currently have unread events for the node being
// checked.
func Evaluate(expr Expr, fresh map[ident.Topic]bool) bool {
	if expr == nil {
		return false
	}
	return expr.eval(fresh)
}

// Topics returns the set of distinct topic names referenced anywhere in
// expr. Duplicate references collapse.
func Topics(expr Expr) []ident.Topic {
	if expr == nil {
		return nil
	}
	set := make(map[ident.Topic]struct{})
	expr.collectTopics(set)
	out := make([]ident.Topic, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}
