package changeset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/conventional"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/scope"
)

func newScopes(t *testing.T) *scope.Registry {
	t.Helper()

	r := scope.NewRegistry()
	for _, s := range []domain.Scope{
		{Path: ".", Name: ""},
		{Path: "pkg/a", Name: "pkg-a"},
		{Path: "pkg/b", Name: "pkg-b"},
	} {
		_, err := r.Register(s.Path, s.Name)
		require.NoError(t, err)
	}
	return r
}

func TestBuilder_Add(t *testing.T) {
	b := NewBuilder(newScopes(t), nil)

	added := b.Add("1111111aaaa", "feat: add widget", []string{
		"pkg/a/src/lib.rs",
		"pkg/a/Cargo.toml",
		"pkg/b/src/lib.rs",
	})
	require.True(t, added)

	cs := b.Finish()
	revisions := cs.Revisions()
	require.Len(t, revisions, 1)
	assert.Equal(t, "1111111aaaa", revisions[0].CommitID)
	assert.Equal(t, []int{1, 2}, revisions[0].Scopes)
	assert.Equal(t, domain.KindFeature, revisions[0].Change.Kind)
}

func TestBuilder_SkipsUnparseable(t *testing.T) {
	b := NewBuilder(newScopes(t), nil)

	assert.False(t, b.Add("1", "Merge branch 'main'", []string{"pkg/a/x"}))
	assert.False(t, b.Add("2", "wip", nil))

	cs := b.Finish()
	assert.True(t, cs.IsEmpty())
	assert.Empty(t, cs.Changed())
}

func TestBuilder_PolicyParser(t *testing.T) {
	b := NewBuilder(newScopes(t), conventional.NewParser(conventional.StrictPolicy()))

	assert.False(t, b.Add("1", "fix: Broken thing.", []string{"pkg/a/x"}))
	assert.True(t, b.Add("2", "fix: broken thing", []string{"pkg/a/x"}))
	assert.Equal(t, domain.Patch, b.Finish().Increment(1))
}

func TestBuilder_Extend(t *testing.T) {
	b := NewBuilder(newScopes(t), nil)

	n := b.Extend([]domain.Commit{
		{ID: "1", Summary: "fix: a", Paths: []string{"pkg/a/x"}},
		{ID: "2", Summary: "random", Paths: []string{"pkg/a/x"}},
		{ID: "3", Summary: "docs: b", Paths: []string{"README.md"}},
	})

	assert.Equal(t, 2, n)
	assert.Len(t, b.Finish().Revisions(), 2)
}

func TestChangeset_Increments(t *testing.T) {
	tests := []struct {
		name    string
		commits []domain.Commit
		want    []domain.Increment
	}{
		{
			name: "feature on pkg-a",
			commits: []domain.Commit{
				{ID: "1", Summary: "feat: add widget", Paths: []string{"pkg/a/lib.rs"}},
			},
			want: []domain.Increment{domain.NoIncrement, domain.Minor, domain.NoIncrement},
		},
		{
			name: "breaking fix escalates to major",
			commits: []domain.Commit{
				{ID: "1", Summary: "fix!: drop support", Paths: []string{"pkg/a/lib.rs"}},
			},
			want: []domain.Increment{domain.NoIncrement, domain.Major, domain.NoIncrement},
		},
		{
			name: "breaking docs stays none",
			commits: []domain.Commit{
				{ID: "1", Summary: "docs!: rewrite guide", Paths: []string{"pkg/a/README.md"}},
			},
			want: []domain.Increment{domain.NoIncrement, domain.NoIncrement, domain.NoIncrement},
		},
		{
			name: "maximum per scope",
			commits: []domain.Commit{
				{ID: "1", Summary: "fix: a", Paths: []string{"pkg/b/x"}},
				{ID: "2", Summary: "feat: b", Paths: []string{"pkg/b/y"}},
				{ID: "3", Summary: "perf: c", Paths: []string{"pkg/b/z", "Cargo.lock"}},
				{ID: "4", Summary: "refactor: d", Paths: []string{"pkg/a/z"}},
			},
			want: []domain.Increment{domain.Patch, domain.Patch, domain.Minor},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(newScopes(t), nil)
			b.Extend(tt.commits)

			cs := b.Finish()

			assert.Equal(t, tt.want, cs.Increments())
		})
	}
}

func TestChangeset_ByName(t *testing.T) {
	b := NewBuilder(newScopes(t), nil)
	b.Add("1", "feat: x", []string{"README.md", "pkg/b/x"})

	cs := b.Finish()

	assert.Equal(t, map[string]domain.Increment{"pkg-b": domain.Minor}, cs.ByName())
	assert.Equal(t, []int{0, 2}, cs.Changed())
	assert.Equal(t, domain.NoIncrement, cs.Increment(99))
}

func TestChangeset_FinishIsSnapshot(t *testing.T) {
	b := NewBuilder(newScopes(t), nil)
	b.Add("1", "fix: x", []string{"pkg/a/x"})
	first := b.Finish()

	b.Add("2", "feat: y", []string{"pkg/a/x"})

	assert.Len(t, first.Revisions(), 1)
	assert.Equal(t, domain.Patch, first.Increment(1))
	assert.Equal(t, domain.Minor, b.Finish().Increment(1))
}

func TestReduce_OrderIndependent(t *testing.T) {
	kinds := []domain.Kind{
		domain.KindFix, domain.KindFeature, domain.KindPerformance, domain.KindRefactor,
		domain.KindDocs, domain.KindTest, domain.KindChore, domain.KindBuild,
	}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		const scopes = 5
		revisions := make([]domain.Revision, 20)
		for i := range revisions {
			var touched []int
			for s := 0; s < scopes; s++ {
				if rng.Intn(3) == 0 {
					touched = append(touched, s)
				}
			}
			revisions[i] = domain.Revision{
				CommitID: "c",
				Change: domain.Change{
					Kind:     kinds[rng.Intn(len(kinds))],
					Breaking: rng.Intn(5) == 0,
				},
				Scopes: touched,
			}
		}

		want := Reduce(revisions, scopes)

		shuffled := append([]domain.Revision(nil), revisions...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		assert.Equal(t, want, Reduce(shuffled, scopes), "round %d", round)
	}
}
