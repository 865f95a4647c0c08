package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, next func() (int, bool), complete func(int) bool) []int {
	t.Helper()

	var order []int
	for {
		id, ok := next()
		if !ok {
			return order
		}
		require.True(t, complete(id))
		order = append(order, id)
	}
}

func TestTraversal_DependencyFirst(t *testing.T) {
	t.Parallel()

	// a -> b -> d, a -> c -> d, e is unrelated.
	g := newGraph(t, "a", "b", "c", "d", "e")
	g.AddEdge(0, 1)
	g.AddEdge(0, 2)
	g.AddEdge(1, 3)
	g.AddEdge(2, 3)

	tr := g.Traverse([]int{0})
	assert.True(t, tr.Contains(3))
	assert.False(t, tr.Contains(4))

	order := drain(t, tr.Next, tr.Complete)
	assert.Equal(t, []int{0, 1, 2, 3}, order)
	assert.True(t, tr.Done())
}

func TestTraversal_WaitsForCompletion(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "a", "b")
	g.AddEdge(0, 1)

	tr := g.Traverse([]int{0})
	id, ok := tr.Next()
	require.True(t, ok)
	assert.Equal(t, 0, id)

	_, ok = tr.Next()
	assert.False(t, ok, "b must wait until a is completed")
	assert.False(t, tr.Done())

	assert.True(t, tr.Complete(0))
	assert.False(t, tr.Complete(0), "completing twice")

	id, ok = tr.Next()
	require.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestTraversal_IgnoresPredecessorsOutsideTraversal(t *testing.T) {
	t.Parallel()

	// c depends on both a and b but only b is seeded.
	g := newGraph(t, "a", "b", "c")
	g.AddEdge(0, 2)
	g.AddEdge(1, 2)

	tr := g.Traverse([]int{1})
	order := drain(t, tr.Next, tr.Complete)
	assert.Equal(t, []int{1, 2}, order)
	assert.True(t, tr.Done())
}

func TestTraversal_CompleteRejectsUnissued(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "a")
	tr := g.Traverse([]int{0})

	assert.False(t, tr.Complete(0))
	assert.False(t, tr.Complete(-1))
	assert.False(t, tr.Complete(3))
}

func TestTraversal_Empty(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "a")
	tr := g.Traverse(nil)

	_, ok := tr.Next()
	assert.False(t, ok)
	assert.True(t, tr.Done())
}
