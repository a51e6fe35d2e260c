package workflow

import "github.com/goadesign/workflow-engine/ident"

// Reserved topic names. These are part of the external contract and are
// wired automatically by Builder.Build; callers never construct them via
// AddTopic.
const (
	InputTopic       ident.Topic = "agent_input_topic"
	OutputTopic      ident.Topic = "agent_output_topic"
	StreamOutputName ident.Topic = "agent_stream_output_topic"
	HumanRequestName ident.Topic = "human_request_topic"
)

// FacadeNode is the consumer name used for the assistant façade, the
// external, out-of-scope layer that feeds agent_input_topic and drains
// agent_output_topic / agent_stream_output_topic / the ask side of
// human_request_topic.
const FacadeNode ident.Node = "__facade__"
