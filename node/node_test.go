package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
	"github.com/goadesign/workflow-engine/subscription"
	"github.com/goadesign/workflow-engine/topic"
)

func TestNodeReadyRequiresSubscriptionSatisfaction(t *testing.T) {
	t.Parallel()

	a := topic.New("A", nil)
	b := topic.New("B", nil)
	topics := map[ident.Topic]*topic.Topic{"A": a, "B": b}

	n := &Node{Name: "N", Subscription: subscription.And(subscription.Topic("A"), subscription.Topic("B"))}
	require.False(t, n.Ready(topics))

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "r1"}
	_, err := a.Publish(ctx, ic, "pub", "node", []*message.Message{message.New(message.RoleUser, "x")}, nil)
	require.NoError(t, err)
	require.False(t, n.Ready(topics))

	_, err = b.Publish(ctx, ic, "pub", "node", []*message.Message{message.New(message.RoleUser, "y")}, nil)
	require.NoError(t, err)
	require.True(t, n.Ready(topics))
}

func TestNodeReadyGoesFalseAfterConsume(t *testing.T) {
	t.Parallel()

	a := topic.New("A", nil)
	topics := map[ident.Topic]*topic.Topic{"A": a}
	n := &Node{Name: "N", Subscription: subscription.Topic("A")}

	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "r1"}
	_, err := a.Publish(ctx, ic, "pub", "node", []*message.Message{message.New(message.RoleUser, "x")}, nil)
	require.NoError(t, err)
	require.True(t, n.Ready(topics))

	_, err = a.Consume(ctx, "N", "node")
	require.NoError(t, err)
	require.False(t, n.Ready(topics))
}

func TestCommandFuncAdapts(t *testing.T) {
	t.Parallel()

	called := false
	cmd := CommandFunc(func(ctx context.Context, ic invoke.Context, input []*event.Event) ([]*message.Message, error) {
		called = true
		return []*message.Message{message.New(message.RoleAssistant, "ok")}, nil
	})

	out, err := cmd.Run(context.Background(), invoke.Context{}, nil)
	require.NoError(t, err)
	require.True(t, called)
	require.Equal(t, "ok", out[0].Content)
}
