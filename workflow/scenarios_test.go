package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/event/inmem"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
	"github.com/goadesign/workflow-engine/node"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/topic"
)

func echoCommand(reply string) node.Command {
	return node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
		return []*message.Message{message.New(message.RoleAssistant, reply)}, nil
	})
}

func eventsOfType(history []*event.Event, typ event.Type) []*event.Event {
	var out []*event.Event
	for _, e := range history {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// S1 — Single LLM round-trip.
func TestScenarioSingleRoundTrip(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	l := &node.Node{
		ID:           "L",
		Name:         "L",
		Subscription: subscription.Topic(InputTopic),
		PublishTo:    []ident.Topic{OutputTopic},
		Command:      echoCommand("hi"),
	}

	wf, err := NewBuilder("s1").WithStore(store).AddNode(l).Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-1"}

	require.NoError(t, wf.Initialize(ctx, ic, []*message.Message{message.New(message.RoleUser, "hello")}))
	require.NoError(t, wf.Drive(ctx, ic))

	history, err := store.EventsForRequest(ctx, "req-1")
	require.NoError(t, err)

	require.Len(t, eventsOfType(history, event.TypeWorkflowInvoke), 1)
	require.Len(t, eventsOfType(history, event.TypeNodeInvoke), 1)
	require.Len(t, eventsOfType(history, event.TypeNodeRespond), 1)
	require.Len(t, eventsOfType(history, event.TypeWorkflowRespond), 1)

	publishes := eventsOfType(history, event.TypePublish)
	require.Len(t, publishes, 2) // In + Out
	require.Equal(t, ident.Topic(InputTopic), publishes[0].TopicName)
	require.Equal(t, 0, publishes[0].Offset)
	require.Equal(t, ident.Topic(OutputTopic), publishes[1].TopicName)
	require.Equal(t, 0, publishes[1].Offset)
	require.Equal(t, []string{publishes[0].ID}, publishes[1].ConsumedEventIDs)
	require.Equal(t, "hi", publishes[1].Data[0].Content)
}

// S2 — AND wait.
func TestScenarioAndWait(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	var gotInputs [][]*event.Event
	n := &node.Node{
		ID:           "N",
		Name:         "N",
		Subscription: subscription.And(subscription.Topic("A"), subscription.Topic("B")),
		PublishTo:    []ident.Topic{OutputTopic},
		Command: node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
			gotInputs = append(gotInputs, input)
			return []*message.Message{message.New(message.RoleAssistant, "ok")}, nil
		}),
	}

	wf, err := NewBuilder("s2").WithStore(store).
		AddTopic("A", nil).
		AddTopic("B", nil).
		AddNode(n).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-2"}
	require.NoError(t, wf.Initialize(ctx, ic, nil))

	r := wf.runFor(ident.RequestID(ic.AssistantRequestID))
	_, err = r.topics["A"].Publish(ctx, ic, "pub", "test", []*message.Message{message.New(message.RoleUser, "a-msg")}, nil)
	require.NoError(t, err)
	require.NoError(t, wf.Drive(ctx, ic))
	require.Len(t, gotInputs, 0) // not ready yet

	_, err = r.topics["B"].Publish(ctx, ic, "pub", "test", []*message.Message{message.New(message.RoleUser, "b-msg")}, nil)
	require.NoError(t, err)
	require.NoError(t, wf.Drive(ctx, ic))
	require.Len(t, gotInputs, 1)
	require.Len(t, gotInputs[0], 2)
}

// S3 — OR earliest wins.
func TestScenarioOrEarliestWins(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	var gotInputs [][]*event.Event
	n := &node.Node{
		ID:           "N",
		Name:         "N",
		Subscription: subscription.Or(subscription.Topic("A"), subscription.Topic("B")),
		PublishTo:    []ident.Topic{OutputTopic},
		Command: node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
			gotInputs = append(gotInputs, input)
			return []*message.Message{message.New(message.RoleAssistant, "ok")}, nil
		}),
	}

	wf, err := NewBuilder("s3").WithStore(store).
		AddTopic("A", nil).
		AddTopic("B", nil).
		AddNode(n).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-3"}
	require.NoError(t, wf.Initialize(ctx, ic, nil))

	r := wf.runFor(ident.RequestID(ic.AssistantRequestID))
	_, err = r.topics["A"].Publish(ctx, ic, "pub", "test", []*message.Message{message.New(message.RoleUser, "a-msg")}, nil)
	require.NoError(t, err)
	require.NoError(t, wf.Drive(ctx, ic))
	require.Len(t, gotInputs, 1)
	require.Len(t, gotInputs[0], 1)
	require.Equal(t, "a-msg", gotInputs[0][0].Data[0].Content)

	_, err = r.topics["B"].Publish(ctx, ic, "pub", "test", []*message.Message{message.New(message.RoleUser, "b-msg")}, nil)
	require.NoError(t, err)
	require.NoError(t, wf.Drive(ctx, ic))
	require.Len(t, gotInputs, 2)
	require.Len(t, gotInputs[1], 1)
	require.Equal(t, "b-msg", gotInputs[1][0].Data[0].Content)
}

// S4 — Cycle with admission filter.
func TestScenarioCycleWithAdmissionFilter(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	invokeCount := 0
	stopAt := "stop"

	n := &node.Node{
		ID:           "N",
		Name:         "N",
		Subscription: subscription.Topic("T"),
		PublishTo:    []ident.Topic{"T"},
		Command: node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
			invokeCount++
			last := input[len(input)-1].Data[len(input[len(input)-1].Data)-1].Content
			next := last + "x"
			if len(next) >= len(stopAt) {
				next = stopAt
			}
			return []*message.Message{message.New(message.RoleAssistant, next)}, nil
		}),
	}

	rejectStop := func(messages []*message.Message) bool {
		for _, m := range messages {
			if m.Content == stopAt {
				return false
			}
		}
		return true
	}

	wf, err := NewBuilder("s4").WithStore(store).
		AddTopic("T", rejectStop).
		AddNode(n).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-4"}

	r := wf.runFor(ident.RequestID(ic.AssistantRequestID))
	require.NoError(t, wf.Initialize(ctx, ic, nil))

	pub, err := r.topics["T"].Publish(ctx, ic, "seed", "test", []*message.Message{message.New(message.RoleUser, "")}, nil)
	require.NoError(t, err)
	require.NotNil(t, pub)

	require.NoError(t, wf.Drive(ctx, ic))

	require.Equal(t, 4, invokeCount)
	require.Equal(t, 4, r.topics["T"].Len())
}

// S5 — Human-in-the-loop resume.
func TestScenarioHumanInTheLoopResume(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	var useInvoked int

	ask := &node.Node{
		ID:           "Ask",
		Name:         "Ask",
		Subscription: subscription.Topic(InputTopic),
		PublishTo:    []ident.Topic{HumanRequestName},
		Command:      echoCommand("what is your name?"),
	}
	use := &node.Node{
		ID:           "Use",
		Name:         "Use",
		Subscription: subscription.Topic(HumanRequestName),
		PublishTo:    []ident.Topic{OutputTopic},
		Command: node.CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
			useInvoked++
			return []*message.Message{message.New(message.RoleAssistant, "nice to meet you")}, nil
		}),
	}

	wf, err := NewBuilder("s5").WithStore(store).AddNode(ask).AddNode(use).Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-5"}

	require.NoError(t, wf.Initialize(ctx, ic, []*message.Message{message.New(message.RoleUser, "hi")}))
	require.NoError(t, wf.Drive(ctx, ic))
	require.Equal(t, 0, useInvoked)

	r := wf.runFor(ident.RequestID(ic.AssistantRequestID))
	require.Equal(t, 1, r.human.Len())

	asks, err := wf.PendingAsks(ctx, ic)
	require.NoError(t, err)
	require.Len(t, asks, 1)

	require.NoError(t, wf.Reply(ctx, ic, asks[0], []*message.Message{message.New(message.RoleUser, "yes")}))

	require.NoError(t, wf.Drive(ctx, ic))
	require.Equal(t, 1, useInvoked)

	history, err := store.EventsForRequest(ctx, "req-5")
	require.NoError(t, err)
	require.Len(t, eventsOfType(history, event.TypeNodeRespond), 2)
}

// S6 — Crash-restore idempotence.
func TestScenarioCrashRestoreIdempotence(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	l := &node.Node{
		ID:           "L",
		Name:         "L",
		Subscription: subscription.Topic(InputTopic),
		PublishTo:    []ident.Topic{OutputTopic},
		Command:      echoCommand("hi"),
	}

	wf, err := NewBuilder("s6").WithStore(store).AddNode(l).Build()
	require.NoError(t, err)

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "req-6"}

	require.NoError(t, wf.Initialize(ctx, ic, []*message.Message{message.New(message.RoleUser, "hello")}))

	// Simulate a crash between NodeInvoke and NodeRespond by manually
	// replaying only the pre-crash prefix into a fresh store.
	fullHistory, err := store.EventsForRequest(ctx, "req-6")
	require.NoError(t, err)
	require.NoError(t, wf.Drive(ctx, ic))
	cleanHistory, err := store.EventsForRequest(ctx, "req-6")
	require.NoError(t, err)
	_ = fullHistory

	crashStore := inmem.New()
	require.NoError(t, crashStore.Append(ctx, cleanHistory[0])) // WorkflowInvoke
	require.NoError(t, crashStore.Append(ctx, cleanHistory[1])) // Publish(In,0)
	var invokeEvt *event.Event
	for _, e := range cleanHistory {
		if e.Type == event.TypeNodeInvoke {
			invokeEvt = e
			break
		}
	}
	require.NotNil(t, invokeEvt)
	require.NoError(t, crashStore.Append(ctx, invokeEvt))

	wf2, err := NewBuilder("s6-restore").WithStore(crashStore).AddNode(&node.Node{
		ID:           "L",
		Name:         "L",
		Subscription: subscription.Topic(InputTopic),
		PublishTo:    []ident.Topic{OutputTopic},
		Command:      echoCommand("hi"),
	}).Build()
	require.NoError(t, err)

	require.NoError(t, wf2.Initialize(ctx, ic, nil))
	require.NoError(t, wf2.Drive(ctx, ic))

	restoredHistory, err := crashStore.EventsForRequest(ctx, "req-6")
	require.NoError(t, err)
	require.Len(t, eventsOfType(restoredHistory, event.TypeNodeInvoke), 2)
	require.Len(t, eventsOfType(restoredHistory, event.TypeNodeRespond), 1)

	publishes := eventsOfType(restoredHistory, event.TypePublish)
	require.Len(t, publishes, 2)
	require.Equal(t, "hi", publishes[1].Data[0].Content)
}

var _ = topic.AlwaysAdmit
