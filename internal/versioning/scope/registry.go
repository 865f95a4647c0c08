// Package scope attributes repository paths to workspace members.
package scope

import (
	"fmt"
	"path"
	"strings"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Root is the path of the workspace root scope.
const Root = "."

// Registry holds the registered scopes in registration order.
// Scope indices are stable for the lifetime of the registry.
type Registry struct {
	scopes []domain.Scope
	depth  []int
	byPath map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]int)}
}

// Register adds a scope and returns its index.
// The path is cleaned first, so "pkg/a/" and "./pkg/a" name the same scope.
func (r *Registry) Register(p, name string) (int, error) {
	cleaned, err := normalize(p)
	if err != nil {
		return 0, err
	}
	if _, ok := r.byPath[cleaned]; ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrDuplicatePath, cleaned)
	}

	idx := len(r.scopes)
	r.scopes = append(r.scopes, domain.Scope{Path: cleaned, Name: name})
	r.depth = append(r.depth, components(cleaned))
	r.byPath[cleaned] = idx
	return idx, nil
}

// Match returns the index of the most specific scope containing file.
// The scope with the most path components wins; the root scope matches
// every relative path.
func (r *Registry) Match(file string) (int, bool) {
	file = path.Clean(strings.TrimPrefix(file, "./"))

	best, bestDepth := -1, -1
	for idx, s := range r.scopes {
		if !contains(s.Path, file) {
			continue
		}
		if r.depth[idx] > bestDepth {
			best, bestDepth = idx, r.depth[idx]
		}
	}
	return best, best >= 0
}

// Scope returns the scope at idx.
func (r *Registry) Scope(idx int) domain.Scope {
	return r.scopes[idx]
}

// Scopes returns all scopes in registration order.
func (r *Registry) Scopes() []domain.Scope {
	out := make([]domain.Scope, len(r.scopes))
	copy(out, r.scopes)
	return out
}

// Len returns the number of registered scopes.
func (r *Registry) Len() int {
	return len(r.scopes)
}

func normalize(p string) (string, error) {
	if p == "" {
		return Root, nil
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidPath, p)
	}
	cleaned := path.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidPath, p)
	}
	return cleaned, nil
}

func components(p string) int {
	if p == Root {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// contains reports whether file lies inside dir on a directory boundary,
// so "pkg/a" contains "pkg/a/x.go" but not "pkg/ab/x.go".
func contains(dir, file string) bool {
	if dir == Root {
		return file != ".." && !strings.HasPrefix(file, "../") && !strings.HasPrefix(file, "/")
	}
	return file == dir || strings.HasPrefix(file, dir+"/")
}
