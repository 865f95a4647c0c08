package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relbump/internal/infrastructure/dag"
)

func newGraph(t *testing.T, names ...string) *dag.Graph {
	t.Helper()

	g := dag.NewGraph()
	for _, name := range names {
		_, added := g.AddNode(name)
		require.True(t, added)
	}
	return g
}

func TestGraph_AddNode(t *testing.T) {
	t.Parallel()

	g := dag.NewGraph()
	a, added := g.AddNode("a")
	assert.True(t, added)
	assert.Equal(t, 0, a)

	again, added := g.AddNode("a")
	assert.False(t, added)
	assert.Equal(t, a, again)

	b, _ := g.AddNode("b")
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "b", g.Name(b))
	assert.Empty(t, g.Name(7))

	id, ok := g.ID("b")
	assert.True(t, ok)
	assert.Equal(t, b, id)
	_, ok = g.ID("missing")
	assert.False(t, ok)
}

func TestGraph_AddEdge(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "a", "b", "c")

	assert.True(t, g.AddEdge(0, 2))
	assert.True(t, g.AddEdge(1, 2))
	assert.False(t, g.AddEdge(0, 2), "duplicate edge")
	assert.False(t, g.AddEdge(0, 5), "unknown target")
	assert.False(t, g.AddEdge(-1, 0), "unknown source")

	assert.Equal(t, []int{2}, g.Outgoing(0))
	assert.Equal(t, []int{0, 1}, g.Incoming(2))
	assert.Empty(t, g.Incoming(0))
	assert.Nil(t, g.Incoming(9))
	assert.Equal(t, []int{0, 1}, g.Sources())
}

func TestGraph_Toposort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes int
		edges [][2]int
		want  []int
		ok    bool
	}{
		{
			name:  "empty",
			nodes: 0,
			want:  []int{},
			ok:    true,
		},
		{
			name:  "chain",
			nodes: 3,
			edges: [][2]int{{2, 1}, {1, 0}},
			want:  []int{2, 1, 0},
			ok:    true,
		},
		{
			name:  "diamond picks smallest ready id",
			nodes: 4,
			edges: [][2]int{{3, 0}, {3, 1}, {0, 2}, {1, 2}},
			want:  []int{3, 0, 1, 2},
			ok:    true,
		},
		{
			name:  "disconnected",
			nodes: 3,
			edges: [][2]int{{2, 0}},
			want:  []int{1, 2, 0},
			ok:    true,
		},
		{
			name:  "cycle",
			nodes: 3,
			edges: [][2]int{{0, 1}, {1, 0}, {2, 0}},
			want:  []int{2},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := dag.NewGraph()
			for i := 0; i < tt.nodes; i++ {
				g.AddNode(string(rune('a' + i)))
			}
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}

			order, ok := g.Toposort()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, order)
		})
	}
}

func TestGraph_FindCycle(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "a", "b", "c", "d")
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)
	g.AddEdge(2, 0)
	g.AddEdge(3, 0)

	assert.Equal(t, []int{0, 1, 2, 0}, g.FindCycle(0))
	assert.Equal(t, []int{1, 2, 0, 1}, g.FindCycle(1))
	assert.Nil(t, g.FindCycle(3))
	assert.Nil(t, g.FindCycle(42))
}

func TestGraph_Reachable(t *testing.T) {
	t.Parallel()

	g := newGraph(t, "a", "b", "c", "d")
	g.AddEdge(0, 1)
	g.AddEdge(1, 2)

	assert.Equal(t, []bool{false, true, true, false}, g.Reachable([]int{1}))
	assert.Equal(t, []bool{true, true, true, true}, g.Reachable([]int{0, 3}))
	assert.Equal(t, []bool{false, false, false, false}, g.Reachable([]int{99}))
}
