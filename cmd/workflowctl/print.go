package main

import (
	"fmt"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/message"
)

// printHistory renders a request's event log as one line per event, the
// fields that matter varying by Type.
func printHistory(history []*event.Event) {
	for _, e := range history {
		switch e.Type {
		case event.TypePublish:
			fmt.Printf("  publish      topic=%-28s offset=%-3d %s\n", e.TopicName, e.Offset, summarize(e))
		case event.TypeConsume:
			fmt.Printf("  consume      topic=%-28s offset=%-3d consumer=%s\n", e.TopicName, e.Offset, e.ConsumerName)
		case event.TypeNodeInvoke:
			fmt.Printf("  node_invoke  node=%s\n", e.NodeName)
		case event.TypeNodeRespond:
			fmt.Printf("  node_respond node=%s %s\n", e.NodeName, summarizeMessages(e.OutputData))
		case event.TypeNodeFailed:
			fmt.Printf("  node_failed  node=%s error=%s\n", e.NodeName, e.Error)
		case event.TypeWorkflowInvoke:
			fmt.Println("  workflow_invoke")
		case event.TypeWorkflowRespond:
			fmt.Println("  workflow_respond")
		case event.TypeWorkflowFailed:
			fmt.Printf("  workflow_failed error=%s\n", e.Error)
		default:
			fmt.Printf("  %s\n", e.Type)
		}
	}
}

func summarize(e *event.Event) string {
	if e.HumanAsk {
		return "(human ask) " + summarizeMessages(e.Data)
	}
	return summarizeMessages(e.Data)
}

func summarizeMessages(messages []*message.Message) string {
	var out string
	for i, m := range messages {
		if i > 0 {
			out += " | "
		}
		out += string(m.Role) + ": " + m.Content
	}
	return out
}
