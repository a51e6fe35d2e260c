package subscription

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goadesign/workflow-engine/ident"
)

func TestTopicEvaluate(t *testing.T) {
	t.Parallel()

	expr := Topic("A")
	require.True(t, Evaluate(expr, map[ident.Topic]bool{"A": true}))
	require.False(t, Evaluate(expr, map[ident.Topic]bool{"A": false}))
	require.False(t, Evaluate(expr, map[ident.Topic]bool{}))
}

func TestAndRequiresBoth(t *testing.T) {
	t.Parallel()

	expr := And(Topic("A"), Topic("B"))
	require.False(t, Evaluate(expr, map[ident.Topic]bool{"A": true}))
	require.False(t, Evaluate(expr, map[ident.Topic]bool{"B": true}))
	require.True(t, Evaluate(expr, map[ident.Topic]bool{"A": true, "B": true}))
}

func TestOrRequiresEither(t *testing.T) {
	t.Parallel()

	expr := Or(Topic("A"), Topic("B"))
	require.True(t, Evaluate(expr, map[ident.Topic]bool{"A": true}))
	require.True(t, Evaluate(expr, map[ident.Topic]bool{"B": true}))
	require.False(t, Evaluate(expr, map[ident.Topic]bool{}))
}

func TestTopicsCollapsesDuplicates(t *testing.T) {
	t.Parallel()

	expr := AllOf(Topic("A"), Or(Topic("A"), Topic("B")))
	got := Topics(expr)
	require.ElementsMatch(t, []ident.Topic{"A", "B"}, got)
}

func TestAllOfAnyOfFold(t *testing.T) {
	t.Parallel()

	all := AllOf(Topic("A"), Topic("B"), Topic("C"))
	require.True(t, Evaluate(all, map[ident.Topic]bool{"A": true, "B": true, "C": true}))
	require.False(t, Evaluate(all, map[ident.Topic]bool{"A": true, "B": true}))

	any := AnyOf(Topic("A"), Topic("B"), Topic("C"))
	require.True(t, Evaluate(any, map[ident.Topic]bool{"C": true}))
	require.False(t, Evaluate(any, map[ident.Topic]bool{}))
}

func TestNilExprIsUnsatisfiable(t *testing.T) {
	t.Parallel()

	require.False(t, Evaluate(nil, map[ident.Topic]bool{"A": true}))
	require.Nil(t, Topics(nil))
}
