package changeset

import (
	"slices"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/scope"
)

// Changeset is the result of scanning one commit range.
type Changeset struct {
	scopes     *scope.Registry
	revisions  []domain.Revision
	increments []domain.Increment
}

// Scopes returns the registry the revisions refer to.
func (c *Changeset) Scopes() *scope.Registry {
	return c.scopes
}

// Revisions returns the revisions in the order they were added.
func (c *Changeset) Revisions() []domain.Revision {
	return slices.Clone(c.revisions)
}

// Increments returns the increment of every scope, indexed by scope.
func (c *Changeset) Increments() []domain.Increment {
	return slices.Clone(c.increments)
}

// Increment returns the increment of one scope.
func (c *Changeset) Increment(idx int) domain.Increment {
	if idx < 0 || idx >= len(c.increments) {
		return domain.NoIncrement
	}
	return c.increments[idx]
}

// ByName returns the present increments of named scopes keyed by name.
func (c *Changeset) ByName() map[string]domain.Increment {
	named := make(map[string]domain.Increment)
	for idx, inc := range c.increments {
		name := c.scopes.Scope(idx).Name
		if name == "" || !inc.Present() {
			continue
		}
		named[name] = inc
	}
	return named
}

// Changed returns the indices of scopes with a present increment.
func (c *Changeset) Changed() []int {
	var changed []int
	for idx, inc := range c.increments {
		if inc.Present() {
			changed = append(changed, idx)
		}
	}
	return changed
}

// IsEmpty reports whether no revision was recorded.
func (c *Changeset) IsEmpty() bool {
	return len(c.revisions) == 0
}
