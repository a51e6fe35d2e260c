// Package ident provides strong type identifiers for the workflow engine.
//
// Using distinct string types instead of bare strings keeps topic names,
// node names, and request identifiers from being accidentally interchanged
// across map keys and function signatures.
package ident

// Topic is the strong type for a topic name, unique within a workflow.
type Topic string

// Node is the strong type for a node name, unique within a workflow.
type Node string

// RequestID is the strong type for the primary correlation key
// (InvokeContext.AssistantRequestID) under which all events for a single
// run are keyed in the event store.
type RequestID string
