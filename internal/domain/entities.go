// Package domain defines the core business entities and interfaces for relbump.
package domain

import (
	"github.com/Masterminds/semver/v3"
)

// Scope is a workspace member directory that commits can be attributed to.
type Scope struct {
	// Path is the member directory relative to the workspace root,
	// slash separated. "." denotes the workspace root itself.
	Path string

	// Name is the package identifier. Empty for pure workspace containers.
	Name string
}

// Kind classifies a conventional change.
type Kind int

// Change kinds in their canonical order.
const (
	KindFix Kind = iota
	KindFeature
	KindPerformance
	KindRefactor
	KindDocs
	KindTest
	KindChore
	KindBuild
)

var kindTokens = [...]string{"fix", "feat", "perf", "refactor", "docs", "test", "chore", "build"}

// String returns the canonical token of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTokens) {
		return "unknown"
	}
	return kindTokens[k]
}

// Increment returns the version increment the kind asks for on its own.
func (k Kind) Increment() Increment {
	switch k {
	case KindFeature:
		return Minor
	case KindFix, KindPerformance, KindRefactor:
		return Patch
	default:
		return NoIncrement
	}
}

// Change is the parsed form of a conventional commit summary.
type Change struct {
	Kind        Kind
	Description string
	Breaking    bool
}

// Increment returns the increment the change requires.
// Breaking escalates to Major only when the kind already implies a release.
func (c Change) Increment() Increment {
	inc := c.Kind.Increment()
	if c.Breaking && inc != NoIncrement {
		return Major
	}
	return inc
}

// String renders the change back into summary form.
func (c Change) String() string {
	bang := ""
	if c.Breaking {
		bang = "!"
	}
	return c.Kind.String() + bang + ": " + c.Description
}

// Commit is a commit as delivered by a Repository.
type Commit struct {
	// ID is the full commit hash.
	ID string

	// Summary is the first line of the commit message.
	Summary string

	// Body is the remainder of the message after the summary.
	Body string

	// Paths lists the files touched relative to the first parent.
	// Renames contribute both the old and the new path.
	Paths []string
}

// Revision is a release-relevant commit attributed to scopes.
type Revision struct {
	CommitID string
	Change   Change

	// Scopes holds scope indices, sorted and free of duplicates.
	Scopes []int
}

// ShortID returns the first seven characters of the commit id.
func (r Revision) ShortID() string {
	if len(r.CommitID) <= 7 {
		return r.CommitID
	}
	return r.CommitID[:7]
}

// TaggedVersion is a release recorded as a version tag.
type TaggedVersion struct {
	Tag     string
	Version *semver.Version
	Commit  string
}

// CommitRange selects commits reachable from From but not from Until.
// An empty From means HEAD, an empty Until means the root of history.
type CommitRange struct {
	From  string
	Until string
}

// Package is a workspace member as declared by its manifest.
type Package struct {
	// Path is the member directory relative to the workspace root.
	Path string

	// ManifestPath is the manifest file relative to the workspace root.
	ManifestPath string

	Name string

	// Version is nil when the manifest does not declare a concrete version.
	Version *semver.Version

	// Dependencies lists the names of every declared dependency, internal or not.
	Dependencies []string
}

// Versioned reports whether the package can take part in a release.
func (p Package) Versioned() bool {
	return p.Name != "" && p.Version != nil
}

// Decision is a pending choice in bump propagation.
type Decision struct {
	Name    string
	Version *semver.Version

	// Own is the increment derived from the package's own revisions.
	Own Increment

	// Candidates is ascending and never empty.
	Candidates []Increment
}

// VersionMap holds the next version of every package that gets bumped.
type VersionMap map[string]*semver.Version

// PlanEntry is one package of a release plan.
type PlanEntry struct {
	Name      string
	Path      string
	Current   *semver.Version
	Next      *semver.Version
	Increment Increment
}

// ReleasePlan is the outcome of bump propagation over the workspace.
type ReleasePlan struct {
	// Version is the changelog range the plan was computed for.
	Version string

	// Entries lists bumped packages in dependency order.
	Entries []PlanEntry
}

// IsEmpty reports whether nothing gets released.
func (p *ReleasePlan) IsEmpty() bool {
	return p == nil || len(p.Entries) == 0
}

// Versions returns the plan as a VersionMap.
func (p *ReleasePlan) Versions() VersionMap {
	versions := make(VersionMap)
	if p == nil {
		return versions
	}
	for _, entry := range p.Entries {
		versions[entry.Name] = entry.Next
	}
	return versions
}

// Unreleased names the commit range from HEAD back to the latest version tag.
const Unreleased = "unreleased"
