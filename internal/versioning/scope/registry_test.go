package scope

import (
	"math/rand"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

func newRegistry(t *testing.T, paths ...string) *Registry {
	t.Helper()

	r := NewRegistry()
	for _, p := range paths {
		_, err := r.Register(p, p)
		require.NoError(t, err)
	}
	return r
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	root, err := r.Register(".", "")
	require.NoError(t, err)
	assert.Equal(t, 0, root)

	a, err := r.Register("./pkg/a/", "pkg-a")
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, domain.Scope{Path: "pkg/a", Name: "pkg-a"}, r.Scope(a))

	assert.Equal(t, 2, r.Len())
	assert.Len(t, r.Scopes(), 2)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "duplicate after cleaning", path: "pkg/a/.", wantErr: domain.ErrDuplicatePath},
		{name: "duplicate root", path: "", wantErr: domain.ErrDuplicatePath},
		{name: "absolute", path: "/etc", wantErr: domain.ErrInvalidPath},
		{name: "parent", path: "..", wantErr: domain.ErrInvalidPath},
		{name: "escapes", path: "pkg/../../x", wantErr: domain.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry(t, ".", "pkg/a")

			_, err := r.Register(tt.path, "x")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 2, r.Len())
		})
	}
}

func TestRegistry_Match(t *testing.T) {
	r := newRegistry(t, ".", "pkg/a", "pkg/a/nested", "pkg/b")

	tests := []struct {
		file   string
		want   int
		wantOk bool
	}{
		{file: "README.md", want: 0, wantOk: true},
		{file: "pkg/a/src/lib.rs", want: 1, wantOk: true},
		{file: "pkg/a", want: 1, wantOk: true},
		{file: "pkg/a/nested/x.go", want: 2, wantOk: true},
		{file: "pkg/ab/x.go", want: 0, wantOk: true},
		{file: "./pkg/b/index.js", want: 3, wantOk: true},
		{file: "../outside", want: -1, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, ok := r.Match(tt.file)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_MatchIndependentOfRegistrationOrder(t *testing.T) {
	r := newRegistry(t, "pkg/a/nested", "pkg/a", ".")

	got, ok := r.Match("pkg/a/nested/deep/file")
	require.True(t, ok)
	assert.Equal(t, "pkg/a/nested", r.Scope(got).Path)

	got, ok = r.Match("pkg/a/file")
	require.True(t, ok)
	assert.Equal(t, "pkg/a", r.Scope(got).Path)
}

func TestRegistry_MatchDeepestOfRandomScopes(t *testing.T) {
	segments := []string{"a", "b", "ab", "crates"}
	rng := rand.New(rand.NewSource(7))

	randomPath := func(depth int) string {
		parts := make([]string, depth)
		for i := range parts {
			parts[i] = segments[rng.Intn(len(segments))]
		}
		return strings.Join(parts, "/")
	}

	for round := 0; round < 100; round++ {
		registered := map[string]bool{Root: true}
		for i := 0; i < 6; i++ {
			registered[randomPath(1+rng.Intn(3))] = true
		}
		paths := make([]string, 0, len(registered))
		for p := range registered {
			paths = append(paths, p)
		}
		rng.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
		r := newRegistry(t, paths...)

		for i := 0; i < 20; i++ {
			file := randomPath(1+rng.Intn(4)) + "/file.txt"

			// nearest registered ancestor directory
			want := Root
			for dir := path.Dir(file); dir != Root; dir = path.Dir(dir) {
				if registered[dir] {
					want = dir
					break
				}
			}

			got, ok := r.Match(file)
			require.True(t, ok, file)
			assert.Equal(t, want, r.Scope(got).Path, "round %d, file %s, scopes %v", round, file, paths)
		}
	}
}

func TestRegistry_MatchWithoutRoot(t *testing.T) {
	r := newRegistry(t, "pkg/a")

	_, ok := r.Match("docs/index.md")
	assert.False(t, ok)
}
