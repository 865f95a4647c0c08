package bump

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/dependents"
)

func buildGraph(t *testing.T, packages ...domain.Package) *dependents.Graph {
	t.Helper()

	g, err := dependents.Build(packages)
	require.NoError(t, err)
	return g
}

func pkg(name, version string, deps ...string) domain.Package {
	return domain.Package{Name: name, Version: semver.MustParse(version), Dependencies: deps}
}

// recordingDecider records every decision and picks the smallest candidate.
type recordingDecider struct {
	decisions []domain.Decision
}

func (r *recordingDecider) Decide(_ context.Context, d domain.Decision) (domain.Increment, error) {
	r.decisions = append(r.decisions, d)
	return d.Candidates[0], nil
}

func TestPropagate_FeatureReachesDependent(t *testing.T) {
	g := buildGraph(t,
		pkg("pkg-a", "1.0.0"),
		pkg("pkg-b", "1.4.2", "pkg-a"),
	)
	decider := &recordingDecider{}

	versions, err := Propagate(context.Background(), g, map[string]domain.Increment{
		"pkg-a": domain.Minor,
	}, decider)

	require.NoError(t, err)
	require.Len(t, decider.decisions, 2)
	assert.Equal(t, "pkg-a", decider.decisions[0].Name)
	assert.Equal(t, []domain.Increment{domain.Minor}, decider.decisions[0].Candidates)
	assert.Equal(t, "pkg-b", decider.decisions[1].Name)
	assert.Equal(t, domain.NoIncrement, decider.decisions[1].Own)
	assert.Equal(t, []domain.Increment{domain.Minor}, decider.decisions[1].Candidates)

	assert.Equal(t, "1.1.0", versions["pkg-a"].String())
	assert.Equal(t, "1.5.0", versions["pkg-b"].String())
}

func TestPropagate_BreakingOnZeroMajor(t *testing.T) {
	g := buildGraph(t, pkg("pkg-a", "0.3.1"))

	versions, err := Propagate(context.Background(), g, map[string]domain.Increment{
		"pkg-a": domain.Major,
	}, &recordingDecider{})

	require.NoError(t, err)
	assert.Equal(t, "0.4.0", versions["pkg-a"].String())
}

func TestPropagate_UnaffectedPackagesOmitted(t *testing.T) {
	g := buildGraph(t,
		pkg("core", "1.0.0"),
		pkg("cli", "1.0.0", "core"),
		pkg("other", "1.0.0"),
	)
	decider := &recordingDecider{}

	versions, err := Propagate(context.Background(), g, map[string]domain.Increment{
		"cli":     domain.Patch,
		"missing": domain.Major,
	}, decider)

	require.NoError(t, err)
	assert.Len(t, decider.decisions, 1)
	assert.Equal(t, domain.VersionMap{"cli": semver.MustParse("1.0.1")}, versions)
}

func TestPropagate_DependencyFirstOrder(t *testing.T) {
	// base <- mid <- app, and base <- app directly.
	g := buildGraph(t,
		pkg("app", "1.0.0", "mid", "base"),
		pkg("mid", "1.0.0", "base"),
		pkg("base", "1.0.0"),
	)
	decider := &recordingDecider{}

	versions, err := Propagate(context.Background(), g, map[string]domain.Increment{
		"base": domain.Major,
		"app":  domain.Patch,
	}, decider)

	require.NoError(t, err)
	order := make([]string, len(decider.decisions))
	for i, d := range decider.decisions {
		order[i] = d.Name
	}
	assert.Equal(t, []string{"base", "mid", "app"}, order)
	assert.Equal(t, []domain.Increment{domain.Patch, domain.Major}, decider.decisions[2].Candidates)
	assert.Equal(t, "2.0.0", versions["base"].String())
	assert.Equal(t, "2.0.0", versions["mid"].String())
	assert.Equal(t, "1.0.1", versions["app"].String())
}

func TestPropagate_DeciderError(t *testing.T) {
	g := buildGraph(t, pkg("a", "1.0.0"))
	boom := errors.New("boom")

	versions, err := Propagate(context.Background(), g, map[string]domain.Increment{"a": domain.Patch},
		domain.DeciderFunc(func(context.Context, domain.Decision) (domain.Increment, error) {
			return domain.NoIncrement, boom
		}))

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, versions)
}

func TestPropagate_InvalidDecision(t *testing.T) {
	g := buildGraph(t, pkg("a", "1.0.0"))

	_, err := Propagate(context.Background(), g, map[string]domain.Increment{"a": domain.Patch},
		domain.DeciderFunc(func(context.Context, domain.Decision) (domain.Increment, error) {
			return domain.Major, nil
		}))

	assert.ErrorIs(t, err, domain.ErrInvalidDecision)
}

func TestPropagate_Cancelled(t *testing.T) {
	g := buildGraph(t, pkg("a", "1.0.0"), pkg("b", "1.0.0", "a"))
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	versions, err := Propagate(ctx, g, map[string]domain.Increment{"a": domain.Patch},
		domain.DeciderFunc(func(_ context.Context, d domain.Decision) (domain.Increment, error) {
			calls++
			cancel()
			return d.Candidates[0], nil
		}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, versions)
	assert.Equal(t, 1, calls)
}

func TestPropagation_StateMachine(t *testing.T) {
	g := buildGraph(t, pkg("a", "1.0.0"), pkg("b", "2.0.0", "a"))
	p := NewPropagation(g, map[string]domain.Increment{"a": domain.Patch, "b": domain.Patch})

	assert.ErrorIs(t, p.Resolve(domain.Patch), domain.ErrNoPendingDecision)

	first, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "a", first.Name)

	again, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, first, again, "pending decision is stable until resolved")

	_, err := p.Result()
	assert.ErrorIs(t, err, domain.ErrPropagationIncomplete)

	assert.ErrorIs(t, p.Resolve(domain.Minor), domain.ErrInvalidDecision)
	require.NoError(t, p.Resolve(domain.Patch))

	second, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "b", second.Name)
	assert.Equal(t, "2.0.0", second.Version.String())
	require.NoError(t, p.Resolve(domain.Patch))

	_, ok = p.Next()
	assert.False(t, ok)
	assert.True(t, p.Done())
	assert.Equal(t, map[string]domain.Increment{"a": domain.Patch, "b": domain.Patch}, p.Increments())

	versions, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, "1.0.1", versions["a"].String())
	assert.Equal(t, "2.0.1", versions["b"].String())
}

func TestPropagation_NothingChanged(t *testing.T) {
	g := buildGraph(t, pkg("a", "1.0.0"))
	p := NewPropagation(g, nil)

	_, ok := p.Next()
	assert.False(t, ok)

	versions, err := p.Result()
	require.NoError(t, err)
	assert.Empty(t, versions)
}
