package topic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

func TestHasUnreadReplyIgnoresAsks(t *testing.T) {
	t.Parallel()

	h := NewHumanRequest("human_request_topic", "facade")
	ctx := context.Background()
	ic := invoke.Context{AssistantRequestID: "r1"}

	ask, err := h.AskUser(ctx, ic, "node-a", "node", message.New(message.RoleAssistant, "name?"))
	require.NoError(t, err)
	require.True(t, ask.HumanAsk)

	require.False(t, h.HasUnreadReply("use"))

	_, err = h.Consume(ctx, "facade", "facade")
	require.NoError(t, err)

	_, err = h.AppendUserInput(ctx, ic, ask, []*message.Message{message.New(message.RoleUser, "Ada")})
	require.NoError(t, err)

	require.True(t, h.HasUnreadReply("use"))
}
