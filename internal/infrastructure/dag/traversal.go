package dag

// Traversal walks the part of a graph reachable from a set of seeds in
// dependency-first order. A node is handed out by Next once every
// predecessor inside the traversal has been completed.
type Traversal struct {
	graph     *Graph
	member    []bool
	waiting   []int
	issued    []bool
	completed []bool
	ready     []int
	remaining int
}

// Traverse starts a traversal over everything reachable from seeds.
// Unknown seed ids are ignored.
func (g *Graph) Traverse(seeds []int) *Traversal {
	t := &Traversal{
		graph:     g,
		member:    g.Reachable(seeds),
		waiting:   make([]int, g.Len()),
		issued:    make([]bool, g.Len()),
		completed: make([]bool, g.Len()),
	}

	for id, in := range t.member {
		if !in {
			continue
		}
		t.remaining++
		for _, u := range g.in[id] {
			if t.member[u] {
				t.waiting[id]++
			}
		}
		if t.waiting[id] == 0 {
			t.ready = append(t.ready, id)
		}
	}

	return t
}

// Next hands out the smallest ready node. Returns false when nothing is
// ready, either because the traversal is done or because handed out
// nodes have not been completed yet.
func (t *Traversal) Next() (int, bool) {
	if len(t.ready) == 0 {
		return -1, false
	}
	id := t.ready[0]
	t.ready = t.ready[1:]
	t.issued[id] = true
	return id, true
}

// Complete marks a handed out node as finished, releasing its successors.
// Returns false if the node was not handed out or was already completed.
func (t *Traversal) Complete(id int) bool {
	if id < 0 || id >= len(t.issued) || !t.issued[id] || t.completed[id] {
		return false
	}
	t.completed[id] = true
	t.remaining--

	for _, v := range t.graph.out[id] {
		if !t.member[v] {
			continue
		}
		t.waiting[v]--
		if t.waiting[v] == 0 {
			insertSorted(&t.ready, v)
		}
	}
	return true
}

// Contains reports whether the node is part of the traversal.
func (t *Traversal) Contains(id int) bool {
	return id >= 0 && id < len(t.member) && t.member[id]
}

// Done reports whether every node of the traversal has been completed.
func (t *Traversal) Done() bool {
	return t.remaining == 0
}
