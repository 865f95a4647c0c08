// Package dag provides a directed graph over named nodes with topological
// ordering, cycle detection and a pull-style dependency-first traversal.
package dag

import (
	"slices"
	"sort"
)

// Graph is a directed graph whose nodes are identified by name and
// addressed by dense integer ids in insertion order.
type Graph struct {
	symbols *SymbolTable

	// out[u] holds v for every edge u -> v, in insertion order.
	out [][]int
	// in[v] holds u for every edge u -> v, in insertion order.
	in [][]int
}

// NewGraph initializes an empty Graph.
func NewGraph() *Graph {
	return &Graph{symbols: NewSymbolTable()}
}

// AddNode inserts a node and returns its id.
// The boolean is false when the node already existed.
func (g *Graph) AddNode(name string) (int, bool) {
	id, added := g.symbols.Intern(name)
	if added {
		g.out = append(g.out, nil)
		g.in = append(g.in, nil)
	}
	return id, added
}

// AddEdge inserts the edge from -> to.
// Returns false if either id is unknown or the edge already exists.
func (g *Graph) AddEdge(from, to int) bool {
	if !g.valid(from) || !g.valid(to) {
		return false
	}
	if slices.Contains(g.out[from], to) {
		return false
	}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
	return true
}

// ID returns the id of the named node.
func (g *Graph) ID(name string) (int, bool) {
	return g.symbols.Lookup(name)
}

// Name returns the name of the node, or "" for an unknown id.
func (g *Graph) Name(id int) string {
	return g.symbols.Resolve(id)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.out)
}

// Outgoing returns the targets of edges leaving id, ascending.
func (g *Graph) Outgoing(id int) []int {
	if !g.valid(id) {
		return nil
	}
	return sortedCopy(g.out[id])
}

// Incoming returns the sources of edges entering id, ascending.
func (g *Graph) Incoming(id int) []int {
	if !g.valid(id) {
		return nil
	}
	return sortedCopy(g.in[id])
}

// Sources returns every node without incoming edges, ascending.
func (g *Graph) Sources() []int {
	var sources []int
	for id := range g.in {
		if len(g.in[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Toposort sorts the nodes with Kahn's algorithm, always picking the
// smallest ready id. Returns false along with the partial order on a cycle.
func (g *Graph) Toposort() ([]int, bool) {
	n := g.Len()
	inDegree := make([]int, n)
	for id := range g.in {
		inDegree[id] = len(g.in[id])
	}

	queue := g.Sources()
	result := make([]int, 0, n)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		result = append(result, u)

		for _, v := range g.out[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				insertSorted(&queue, v)
			}
		}
	}

	return result, len(result) == n
}

// FindCycle returns a cycle through start as start -> ... -> start,
// or nil when start is not on a cycle.
func (g *Graph) FindCycle(start int) []int {
	if !g.valid(start) {
		return nil
	}

	parent := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.out[u] {
			if v == start {
				cycle := []int{start}
				for curr := u; curr != start && curr != -1; curr = parent[curr] {
					cycle = append(cycle, curr)
				}
				cycle = append(cycle, start)
				slices.Reverse(cycle)
				return cycle
			}
			if _, seen := parent[v]; !seen {
				parent[v] = u
				queue = append(queue, v)
			}
		}
	}

	return nil
}

// Reachable marks every node reachable from the seeds, seeds included.
func (g *Graph) Reachable(seeds []int) []bool {
	marked := make([]bool, g.Len())
	var stack []int
	for _, s := range seeds {
		if g.valid(s) && !marked[s] {
			marked[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, v := range g.out[u] {
			if !marked[v] {
				marked[v] = true
				stack = append(stack, v)
			}
		}
	}
	return marked
}

func (g *Graph) valid(id int) bool {
	return id >= 0 && id < len(g.out)
}

func sortedCopy(ids []int) []int {
	result := slices.Clone(ids)
	sort.Ints(result)
	return result
}

// insertSorted inserts v into sorted slice s.
func insertSorted(s *[]int, v int) {
	i := sort.SearchInts(*s, v)
	*s = append(*s, 0)
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = v
}
