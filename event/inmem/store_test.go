package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/ident"
	"github.com/goadesign/workflow-engine/invoke"
)

func TestStoreAppendAndList(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	reqID := ident.RequestID("req-1")

	has, err := s.HasEventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.False(t, has)

	for i := 0; i < 3; i++ {
		e := event.New(event.TypePublish, invoke.Context{AssistantRequestID: reqID})
		e.Offset = i
		require.NoError(t, s.Append(ctx, e))
	}

	has, err = s.HasEventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.True(t, has)

	events, err := s.EventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		require.Equal(t, i, e.Offset)
	}
}

func TestStoreIsolatesRequests(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	e1 := event.New(event.TypePublish, invoke.Context{AssistantRequestID: "req-a"})
	e2 := event.New(event.TypePublish, invoke.Context{AssistantRequestID: "req-b"})
	require.NoError(t, s.Append(ctx, e1))
	require.NoError(t, s.Append(ctx, e2))

	a, err := s.EventsForRequest(ctx, "req-a")
	require.NoError(t, err)
	require.Len(t, a, 1)

	b, err := s.EventsForRequest(ctx, "req-b")
	require.NoError(t, err)
	require.Len(t, b, 1)
}

func TestStoreAppendDoesNotAliasCaller(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	reqID := ident.RequestID("req-1")

	e := event.New(event.TypePublish, invoke.Context{AssistantRequestID: reqID})
	e.ConsumedEventIDs = []string{"parent-1"}
	require.NoError(t, s.Append(ctx, e))

	e.ConsumedEventIDs[0] = "mutated"

	stored, err := s.EventsForRequest(ctx, reqID)
	require.NoError(t, err)
	require.Equal(t, "parent-1", stored[0].ConsumedEventIDs[0])
}
