// Package dependents builds the dependency graph of workspace packages,
// with edges pointing from a dependency to its dependents.
package dependents

import (
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/infrastructure/dag"
)

// Graph is the acyclic dependency graph over versioned packages.
// Node ids follow the order packages were passed to Build.
type Graph struct {
	dag      *dag.Graph
	packages []domain.Package
	order    []int
}

// Build creates the graph. Packages without a name or version are left
// out, as are self references and dependencies outside the workspace.
func Build(packages []domain.Package) (*Graph, error) {
	g := &Graph{dag: dag.NewGraph()}

	for _, pkg := range packages {
		if !pkg.Versioned() {
			continue
		}
		if _, added := g.dag.AddNode(pkg.Name); !added {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePackage, pkg.Name)
		}
		g.packages = append(g.packages, pkg)
	}

	for dependent, pkg := range g.packages {
		for _, name := range pkg.Dependencies {
			dependency, ok := g.dag.ID(name)
			if !ok || dependency == dependent {
				continue
			}
			g.dag.AddEdge(dependency, dependent)
		}
	}

	order, ok := g.dag.Toposort()
	if !ok {
		return nil, g.cycleError(order)
	}
	g.order = order

	return g, nil
}

func (g *Graph) cycleError(sorted []int) error {
	done := make([]bool, g.dag.Len())
	for _, id := range sorted {
		done[id] = true
	}
	for id := range done {
		if done[id] {
			continue
		}
		if cycle := g.dag.FindCycle(id); len(cycle) > 0 {
			names := make([]string, len(cycle))
			for i, member := range cycle {
				names[i] = g.dag.Name(member)
			}
			return fmt.Errorf("%w: %s", domain.ErrCyclicDependency, strings.Join(names, " -> "))
		}
	}
	return domain.ErrCyclicDependency
}

// Len returns the number of packages in the graph.
func (g *Graph) Len() int {
	return len(g.packages)
}

// Package returns the package of node id.
func (g *Graph) Package(id int) domain.Package {
	return g.packages[id]
}

// Lookup returns the node id of the named package.
func (g *Graph) Lookup(name string) (int, bool) {
	return g.dag.ID(name)
}

// Dependencies returns the workspace dependencies of node id.
func (g *Graph) Dependencies(id int) []int {
	return g.dag.Incoming(id)
}

// Dependents returns the packages directly depending on node id.
func (g *Graph) Dependents(id int) []int {
	return g.dag.Outgoing(id)
}

// Sources returns the packages without workspace dependencies.
func (g *Graph) Sources() []int {
	return g.dag.Sources()
}

// Order returns every node in dependency-first order.
func (g *Graph) Order() []int {
	out := make([]int, len(g.order))
	copy(out, g.order)
	return out
}

// Packages returns every package in dependency-first order.
func (g *Graph) Packages() []domain.Package {
	out := make([]domain.Package, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.packages[id])
	}
	return out
}

// Traverse walks the seeds and all their transitive dependents,
// handing out a node only after its dependencies are completed.
func (g *Graph) Traverse(seeds []int) *dag.Traversal {
	return g.dag.Traverse(seeds)
}
