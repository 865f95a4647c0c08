// Package changeset turns commits into revisions attributed to workspace
// scopes and reduces them to one increment per scope.
package changeset

import (
	"slices"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/conventional"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/scope"
)

// Builder collects revisions for a single changeset.
type Builder struct {
	scopes    *scope.Registry
	parser    domain.ChangeParser
	revisions []domain.Revision
}

// NewBuilder creates a Builder attributing paths through scopes.
// A nil parser parses summaries without policy checks.
func NewBuilder(scopes *scope.Registry, parser domain.ChangeParser) *Builder {
	if parser == nil {
		parser = conventional.NewParser(conventional.Policy{})
	}
	return &Builder{scopes: scopes, parser: parser}
}

// Add parses the summary and records a revision for the scopes the paths
// belong to. Summaries that do not parse are skipped and Add returns false.
func (b *Builder) Add(id, summary string, paths []string) bool {
	change, err := b.parser.Parse(summary)
	if err != nil {
		return false
	}

	var indices []int
	for _, p := range paths {
		if idx, ok := b.scopes.Match(p); ok {
			indices = append(indices, idx)
		}
	}
	slices.Sort(indices)

	b.revisions = append(b.revisions, domain.Revision{
		CommitID: id,
		Change:   change,
		Scopes:   slices.Compact(indices),
	})
	return true
}

// AddCommit adds a commit delivered by a repository.
func (b *Builder) AddCommit(c domain.Commit) bool {
	return b.Add(c.ID, c.Summary, c.Paths)
}

// Extend adds every commit and returns how many became revisions.
func (b *Builder) Extend(commits []domain.Commit) int {
	added := 0
	for _, c := range commits {
		if b.AddCommit(c) {
			added++
		}
	}
	return added
}

// Finish reduces the collected revisions into a Changeset.
// The builder stays usable; later additions do not affect the result.
func (b *Builder) Finish() *Changeset {
	revisions := slices.Clone(b.revisions)
	return &Changeset{
		scopes:     b.scopes,
		revisions:  revisions,
		increments: Reduce(revisions, b.scopes.Len()),
	}
}

// Reduce computes the increment of every scope as the maximum increment
// of the revisions touching it. The result does not depend on revision order.
func Reduce(revisions []domain.Revision, scopes int) []domain.Increment {
	increments := make([]domain.Increment, scopes)
	for _, rev := range revisions {
		inc := rev.Change.Increment()
		for _, idx := range rev.Scopes {
			if idx >= 0 && idx < scopes {
				increments[idx] = domain.MaxIncrement(increments[idx], inc)
			}
		}
	}
	return increments
}
