package bump

import (
	"context"
	"fmt"
	"slices"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/infrastructure/dag"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/dependents"
)

// Propagation resolves the increment of every changed package and its
// transitive dependents, one decision at a time. Packages are offered in
// dependency-first order, so every decision sees the final increments of
// the package's dependencies.
type Propagation struct {
	graph     *dependents.Graph
	traversal *dag.Traversal
	own       []domain.Increment
	resolved  []domain.Increment
	decided   []bool

	pending   *domain.Decision
	pendingID int
}

// NewPropagation starts a propagation for the given own increments by
// package name. Names that are not in the graph are ignored.
func NewPropagation(graph *dependents.Graph, increments map[string]domain.Increment) *Propagation {
	p := &Propagation{
		graph:     graph,
		own:       make([]domain.Increment, graph.Len()),
		resolved:  make([]domain.Increment, graph.Len()),
		decided:   make([]bool, graph.Len()),
		pendingID: -1,
	}

	var seeds []int
	for name, inc := range increments {
		id, ok := graph.Lookup(name)
		if !ok {
			continue
		}
		p.own[id] = inc
		if inc.Present() {
			seeds = append(seeds, id)
		}
	}
	slices.Sort(seeds)
	p.traversal = graph.Traverse(seeds)

	return p
}

// Next returns the pending decision, advancing to the next package when
// the previous decision has been resolved. Returns false when every
// package is resolved.
func (p *Propagation) Next() (*domain.Decision, bool) {
	if p.pending == nil {
		id, ok := p.traversal.Next()
		if !ok {
			return nil, false
		}
		p.pendingID = id
		p.pending = p.decision(id)
	}

	d := *p.pending
	d.Candidates = slices.Clone(p.pending.Candidates)
	return &d, true
}

func (p *Propagation) decision(id int) *domain.Decision {
	pkg := p.graph.Package(id)

	deps := p.graph.Dependencies(id)
	resolved := make([]domain.Increment, len(deps))
	for i, dep := range deps {
		resolved[i] = p.resolved[dep]
	}

	return &domain.Decision{
		Name:       pkg.Name,
		Version:    pkg.Version,
		Own:        p.own[id],
		Candidates: Candidates(p.own[id], resolved),
	}
}

// Resolve records the increment chosen for the pending decision.
func (p *Propagation) Resolve(inc domain.Increment) error {
	if p.pending == nil {
		return domain.ErrNoPendingDecision
	}
	if !slices.Contains(p.pending.Candidates, inc) {
		return fmt.Errorf("%w: %s for %s, expected one of %v",
			domain.ErrInvalidDecision, inc, p.pending.Name, p.pending.Candidates)
	}

	p.resolved[p.pendingID] = inc
	p.decided[p.pendingID] = true
	p.traversal.Complete(p.pendingID)
	p.pending = nil
	p.pendingID = -1
	return nil
}

// Run resolves every remaining decision with the decider. The context is
// checked before each decision; decider errors are returned unchanged.
func (p *Propagation) Run(ctx context.Context, decider domain.Decider) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, ok := p.Next()
		if !ok {
			return nil
		}
		inc, err := decider.Decide(ctx, *d)
		if err != nil {
			return err
		}
		if err := p.Resolve(inc); err != nil {
			return err
		}
	}
}

// Done reports whether every package has been resolved.
func (p *Propagation) Done() bool {
	return p.pending == nil && p.traversal.Done()
}

// Increments returns the present resolved increments by package name.
func (p *Propagation) Increments() map[string]domain.Increment {
	out := make(map[string]domain.Increment)
	for id, inc := range p.resolved {
		if p.decided[id] && inc.Present() {
			out[p.graph.Package(id).Name] = inc
		}
	}
	return out
}

// Result returns the next version of every package with a present
// increment. Fails until every decision has been resolved.
func (p *Propagation) Result() (domain.VersionMap, error) {
	if !p.Done() {
		return nil, domain.ErrPropagationIncomplete
	}

	versions := make(domain.VersionMap)
	for name, inc := range p.Increments() {
		id, _ := p.graph.Lookup(name)
		versions[name] = Bump(p.graph.Package(id).Version, inc)
	}
	return versions, nil
}

// Propagate resolves all decisions with the decider and returns the
// resulting versions. Nothing is returned when the run is aborted.
func Propagate(
	ctx context.Context,
	graph *dependents.Graph,
	increments map[string]domain.Increment,
	decider domain.Decider,
) (domain.VersionMap, error) {
	p := NewPropagation(graph, increments)
	if err := p.Run(ctx, decider); err != nil {
		return nil, err
	}
	return p.Result()
}

// Candidates returns the increments a package may resolve to, ascending.
// Without workspace dependencies the only candidate is own. Otherwise it
// is own together with every resolved dependency increment, dropping
// anything below own, and dropping NoIncrement once a dependency bumps.
func Candidates(own domain.Increment, dependencies []domain.Increment) []domain.Increment {
	if len(dependencies) == 0 {
		return []domain.Increment{own}
	}

	set := map[domain.Increment]bool{own: true}
	forced := false
	for _, inc := range dependencies {
		set[inc] = true
		if inc.Present() {
			forced = true
		}
	}

	var candidates []domain.Increment
	for inc := range set {
		if inc < own || (forced && !inc.Present()) {
			continue
		}
		candidates = append(candidates, inc)
	}
	slices.Sort(candidates)
	return candidates
}
