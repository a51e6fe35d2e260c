package ancestor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/event"
	"github.com/goadesign/workflow-engine/invoke"
	"github.com/goadesign/workflow-engine/message"
)

func mkEvent(id string, ts int64, consumed []string, content string) *event.Event {
	e := event.New(event.TypePublish, invoke.Context{AssistantRequestID: "r1"})
	e.ID = id
	e.Timestamp = ts
	e.ConsumedEventIDs = consumed
	e.Data = []*message.Message{message.New(message.RoleUser, content)}
	return e
}

func TestBuildLinearChain(t *testing.T) {
	t.Parallel()

	root := mkEvent("e1", 1, nil, "first")
	mid := mkEvent("e2", 2, []string{"e1"}, "second")
	seed := mkEvent("e3", 3, []string{"e2"}, "third")

	lookup := MapLookup([]*event.Event{root, mid, seed})
	ordered, err := Build([]*event.Event{seed}, lookup)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	require.Equal(t, []string{"e1", "e2", "e3"}, idsOf(ordered))
}

func TestBuildDiamondCollapsesSharedAncestor(t *testing.T) {
	t.Parallel()

	root := mkEvent("root", 1, nil, "shared")
	left := mkEvent("left", 2, []string{"root"}, "left")
	right := mkEvent("right", 3, []string{"root"}, "right")
	seed := mkEvent("seed", 4, []string{"left", "right"}, "merge")

	lookup := MapLookup([]*event.Event{root, left, right, seed})
	ordered, err := Build([]*event.Event{seed}, lookup)
	require.NoError(t, err)
	require.Len(t, ordered, 4)
	require.Equal(t, "root", ordered[0].ID)
	require.Equal(t, "seed", ordered[3].ID)
	// left/right are siblings at the same layer, ordered by ascending
	// timestamp after the final reversal.
	require.ElementsMatch(t, []string{"left", "right"}, idsOf(ordered[1:3]))
}

func TestBuildMultipleSeedsDeduplicates(t *testing.T) {
	t.Parallel()

	root := mkEvent("root", 1, nil, "shared")
	a := mkEvent("a", 2, []string{"root"}, "a")
	b := mkEvent("b", 3, []string{"root"}, "b")

	lookup := MapLookup([]*event.Event{root, a, b})
	ordered, err := Build([]*event.Event{a, b}, lookup)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
}

func TestBuildDanglingParentIsFatal(t *testing.T) {
	t.Parallel()

	seed := mkEvent("seed", 1, []string{"missing"}, "x")
	lookup := MapLookup([]*event.Event{seed})

	_, err := Build([]*event.Event{seed}, lookup)
	require.Error(t, err)
	var dangling *DanglingParentError
	require.ErrorAs(t, err, &dangling)
	require.Equal(t, "missing", dangling.ParentID)
}

func TestMessagesConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	root := mkEvent("e1", 1, nil, "first")
	seed := mkEvent("e2", 2, []string{"e1"}, "second")
	lookup := MapLookup([]*event.Event{root, seed})

	ordered, err := Build([]*event.Event{seed}, lookup)
	require.NoError(t, err)

	msgs := Messages(ordered)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "second", msgs[1].Content)
}

func idsOf(events []*event.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
