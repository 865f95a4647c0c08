package domain

import (
	"context"
)

// Repository provides release history from version control.
type Repository interface {
	// Root returns the working tree root directory.
	Root() string

	// Versions returns all version tags, newest first.
	Versions(ctx context.Context) ([]TaggedVersion, error)

	// Commits returns the commits of the range, newest first, with their changed paths.
	Commits(ctx context.Context, rng CommitRange) ([]Commit, error)

	// CommitFiles stages the given worktree paths and commits them.
	// Returns the new commit id.
	CommitFiles(ctx context.Context, message string, paths []string) (string, error)

	// Close releases any resources held by the repository.
	Close() error
}

// Workspace discovers workspace packages and rewrites their manifests.
type Workspace interface {
	// Packages returns every member of the workspace, root first.
	Packages(ctx context.Context) ([]Package, error)

	// Apply writes the new versions into the manifests and returns the
	// rewritten manifest paths, relative to the workspace root.
	Apply(ctx context.Context, versions VersionMap) ([]string, error)
}

// ChangeParser parses commit summaries into changes.
type ChangeParser interface {
	Parse(summary string) (Change, error)
}

// Decider chooses the increment of a package from its candidates.
// The returned increment must be one of d.Candidates.
type Decider interface {
	Decide(ctx context.Context, d Decision) (Increment, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, d Decision) (Increment, error)

// Decide calls f.
func (f DeciderFunc) Decide(ctx context.Context, d Decision) (Increment, error) {
	return f(ctx, d)
}

// OutputWriter writes command results to an output destination.
type OutputWriter interface {
	// WriteChangelog writes rendered changelog text. Empty text writes nothing.
	WriteChangelog(text string) error

	// WritePackages writes one package name per line.
	WritePackages(names []string) error

	// WritePlan writes a release plan.
	WritePlan(plan *ReleasePlan) error

	// WriteVersions writes released versions, newest first.
	WriteVersions(versions []TaggedVersion) error
}
