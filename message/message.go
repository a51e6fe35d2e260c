// Package message defines the immutable conversational unit exchanged
// between topics: Message. It is intentionally a flat, provider-agnostic
// struct rather than a typed-parts hierarchy, matching the scope of the
// engine's topic/offset/subscription machinery rather than model-provider
// content modeling.
package message

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies the speaker for a Message.
type Role string

const (
	// RoleSystem marks a system-authored message (instructions, context).
	RoleSystem Role = "system"

	// RoleUser marks a message authored by the end user.
	RoleUser Role = "user"

	// RoleAssistant marks a message authored by an LLM-caller node.
	RoleAssistant Role = "assistant"

	// RoleTool marks a message carrying a tool/function result.
	RoleTool Role = "tool"
)

// ToolCall is a single function-invocation request attached to a Message.
// A Message with a non-empty ToolCalls list signals "call these functions
// next"; downstream function-call nodes match on Name and consume only
// such messages.
type ToolCall struct {
	// ID uniquely identifies this tool call so a later tool-result Message
	// can reference it via ToolCallID.
	ID string

	// Name is the function/tool identifier requested.
	Name string

	// Arguments is the JSON-compatible arguments object for the call.
	Arguments any
}

// Message is a single, immutable conversational unit.
//
// Invariants: ID is stable across serialization (the same logical message
// always round-trips to the same ID); Timestamp strictly orders messages
// produced by the same clock (see New).
type Message struct {
	// ID uniquely identifies the message.
	ID string

	// Timestamp is the monotonic-nanosecond creation time used to order
	// messages produced by the same clock. See New.
	Timestamp int64

	// Role identifies the speaker.
	Role Role

	// Content is the free-form text or structured payload. Optional: a
	// message whose entire purpose is to carry ToolCalls may have empty
	// Content.
	Content string

	// ToolCallID back-references the ToolCall this message answers. Set
	// only on tool-result messages.
	ToolCallID string

	// ToolCalls lists function-invocation requests issued by this message.
	// Set only on assistant messages that request tool execution.
	ToolCalls []ToolCall

	// Name optionally identifies the source/function that produced this
	// message (e.g., the tool name for a RoleTool message).
	Name string

	// AvailableFunctions is attached by the workflow engine, when a node
	// publishes, to messages bound for a topic subscribed to by a
	// function-call node (the specs are discovered once, at build time),
	// so the receiving language-model call can discover callable
	// functions. Empty on messages with no downstream function-call
	// subscriber.
	AvailableFunctions []FunctionDescriptor `json:",omitempty"`
}

// FunctionDescriptor describes a callable a function-call node advertises
// to upstream LLM-caller nodes. It mirrors node.FunctionSpec but lives
// here, free of any dependency on the node package, so Message can carry
// it without a cycle.
type FunctionDescriptor struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// clock is swappable in tests so Timestamp ordering can be made
// deterministic without relying on wall-clock resolution.
var clock = func() int64 { return time.Now().UnixNano() }

// New constructs a Message with a fresh ID and a Timestamp strictly later
// than any Timestamp previously produced by New in this process, so
// messages created back-to-back by the same clock sort deterministically.
func New(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Timestamp: nextTimestamp(),
		Role:      role,
		Content:   content,
	}
}

var (
	timestampMu   sync.Mutex
	lastTimestamp int64
)

// nextTimestamp returns a value from clock that is guaranteed to be
// strictly greater than the previously returned value, compensating for
// clock granularity coarser than the rate messages are created.
func nextTimestamp() int64 {
	timestampMu.Lock()
	defer timestampMu.Unlock()
	t := clock()
	if t <= lastTimestamp {
		t = lastTimestamp + 1
	}
	lastTimestamp = t
	return t
}

// IsToolRequest reports whether this message requests one or more tool
// invocations.
func (m *Message) IsToolRequest() bool {
	return m != nil && len(m.ToolCalls) > 0
}

// IsToolResult reports whether this message is a tool response keyed to an
// earlier tool call.
func (m *Message) IsToolResult() bool {
	return m != nil && m.ToolCallID != ""
}
