// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"
	"path"

	"github.com/Masterminds/semver/v3"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/bump"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/changelog"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/changeset"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/dependents"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/scope"
)

// Logger defines the logging interface required by the planner.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Planner computes changelogs and release plans for a workspace from the
// history of the repository it lives in.
type Planner struct {
	repo      domain.Repository
	workspace domain.Workspace
	parser    domain.ChangeParser
	logger    Logger
	base      string
}

// Option configures a Planner.
type Option func(*Planner)

// WithWorkspacePath sets the workspace location relative to the
// repository root. Defaults to the root itself.
func WithWorkspacePath(rel string) Option {
	return func(p *Planner) {
		p.base = path.Clean(rel)
	}
}

// NewPlanner creates a new Planner with the given dependencies.
func NewPlanner(
	repo domain.Repository,
	workspace domain.Workspace,
	parser domain.ChangeParser,
	log Logger,
	opts ...Option,
) *Planner {
	p := &Planner{
		repo:      repo,
		workspace: workspace,
		parser:    parser,
		logger:    log,
		base:      ".",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReleaseResult describes what Release wrote.
type ReleaseResult struct {
	// Files are the rewritten manifests, relative to the repository root.
	Files []string

	// Commit is the release commit id, empty when nothing was committed.
	Commit string
}

// state is the workspace as seen by one command.
type state struct {
	packages []domain.Package
	scopes   *scope.Registry
	graph    *dependents.Graph
}

func (p *Planner) load(ctx context.Context) (*state, error) {
	packages, err := p.workspace.Packages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	scopes := scope.NewRegistry()
	for _, pkg := range packages {
		if _, err := scopes.Register(p.repoPath(pkg.Path), pkg.Name); err != nil {
			return nil, fmt.Errorf("package %s: %w", pkg.Name, err)
		}
	}

	graph, err := dependents.Build(packages)
	if err != nil {
		return nil, err
	}

	p.logger.Debug(ctx, "loaded workspace", map[string]interface{}{
		"packages":  len(packages),
		"versioned": graph.Len(),
	})

	return &state{packages: packages, scopes: scopes, graph: graph}, nil
}

func (p *Planner) repoPath(rel string) string {
	return path.Join(p.base, rel)
}

// Versions returns the released versions recorded as tags, newest first.
func (p *Planner) Versions(ctx context.Context) ([]domain.TaggedVersion, error) {
	tags, err := p.repo.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read version tags: %w", err)
	}
	p.logger.Debug(ctx, "read version tags", map[string]interface{}{
		"count": len(tags),
	})
	return tags, nil
}

// Range returns the commit range of a release. domain.Unreleased selects
// HEAD back to the newest version tag; a version selects its tag back to
// the next older one. Without tags the range covers the whole history.
func (p *Planner) Range(ctx context.Context, version string) (domain.CommitRange, error) {
	tags, err := p.repo.Versions(ctx)
	if err != nil {
		return domain.CommitRange{}, fmt.Errorf("failed to read version tags: %w", err)
	}

	if version == domain.Unreleased {
		if len(tags) == 0 {
			return domain.CommitRange{}, nil
		}
		return domain.CommitRange{Until: tags[0].Commit}, nil
	}

	want, err := semver.NewVersion(version)
	if err != nil {
		return domain.CommitRange{}, fmt.Errorf("%w: %s", domain.ErrUnknownVersion, version)
	}
	for i, tag := range tags {
		if !tag.Version.Equal(want) {
			continue
		}
		rng := domain.CommitRange{From: tag.Commit}
		if i+1 < len(tags) {
			rng.Until = tags[i+1].Commit
		}
		return rng, nil
	}
	return domain.CommitRange{}, fmt.Errorf("%w: %s", domain.ErrUnknownVersion, version)
}

func (p *Planner) changeset(ctx context.Context, scopes *scope.Registry, version string) (*changeset.Changeset, error) {
	rng, err := p.Range(ctx, version)
	if err != nil {
		return nil, err
	}

	commits, err := p.repo.Commits(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to read commits: %w", err)
	}

	builder := changeset.NewBuilder(scopes, p.parser)
	added := builder.Extend(commits)

	p.logger.Debug(ctx, "scanned commits", map[string]interface{}{
		"version": version,
		"from":    rng.From,
		"until":   rng.Until,
		"commits": len(commits),
		"changes": added,
	})
	if skipped := len(commits) - added; skipped > 0 {
		p.logger.Debug(ctx, "skipped commits without a recognised change", map[string]interface{}{
			"count": skipped,
		})
	}

	return builder.Finish(), nil
}

// Changeset scans the commits of a release.
func (p *Planner) Changeset(ctx context.Context, version string) (*changeset.Changeset, error) {
	st, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return p.changeset(ctx, st.scopes, version)
}

// Changelog renders the Markdown changelog of a release.
// An empty string means nothing noteworthy changed.
func (p *Planner) Changelog(ctx context.Context, version string) (string, error) {
	cs, err := p.Changeset(ctx, version)
	if err != nil {
		return "", err
	}
	return changelog.Render(cs), nil
}

// Packages returns the names of all versioned packages, dependencies first.
func (p *Planner) Packages(ctx context.Context) ([]string, error) {
	st, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return names(st.graph, st.graph.Order()), nil
}

// Changed returns the versioned packages with a present increment in the
// release, dependencies first.
func (p *Planner) Changed(ctx context.Context, version string) ([]string, error) {
	st, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := p.changeset(ctx, st.scopes, version)
	if err != nil {
		return nil, err
	}

	increments := cs.ByName()
	var changed []int
	for _, id := range st.graph.Order() {
		if increments[st.graph.Package(id).Name].Present() {
			changed = append(changed, id)
		}
	}
	return names(st.graph, changed), nil
}

// Plan propagates the unreleased increments through the dependency graph,
// asking decider whenever a package has more than one option.
func (p *Planner) Plan(ctx context.Context, decider domain.Decider) (*domain.ReleasePlan, error) {
	st, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := p.changeset(ctx, st.scopes, domain.Unreleased)
	if err != nil {
		return nil, err
	}

	propagation := bump.NewPropagation(st.graph, cs.ByName())
	if err := propagation.Run(ctx, decider); err != nil {
		return nil, err
	}
	versions, err := propagation.Result()
	if err != nil {
		return nil, err
	}
	increments := propagation.Increments()

	plan := &domain.ReleasePlan{Version: domain.Unreleased}
	for _, id := range st.graph.Order() {
		pkg := st.graph.Package(id)
		next, ok := versions[pkg.Name]
		if !ok {
			continue
		}
		plan.Entries = append(plan.Entries, domain.PlanEntry{
			Name:      pkg.Name,
			Path:      pkg.Path,
			Current:   pkg.Version,
			Next:      next,
			Increment: increments[pkg.Name],
		})
	}

	p.logger.Info(ctx, "computed release plan", map[string]interface{}{
		"packages": len(plan.Entries),
	})
	return plan, nil
}

// Release writes a plan into the manifests. With commit set, the rewritten
// manifests are committed with message followed by the changelog.
func (p *Planner) Release(
	ctx context.Context,
	plan *domain.ReleasePlan,
	commit bool,
	message string,
) (*ReleaseResult, error) {
	if plan.IsEmpty() {
		return &ReleaseResult{}, nil
	}

	var notes string
	if commit {
		var err error
		if notes, err = p.Changelog(ctx, plan.Version); err != nil {
			return nil, err
		}
	}

	written, err := p.workspace.Apply(ctx, plan.Versions())
	if err != nil {
		return nil, fmt.Errorf("failed to write manifests: %w", err)
	}

	result := &ReleaseResult{}
	for _, file := range written {
		result.Files = append(result.Files, p.repoPath(file))
	}
	p.logger.Info(ctx, "updated manifests", map[string]interface{}{
		"files": result.Files,
	})

	if !commit || len(result.Files) == 0 {
		return result, nil
	}

	if notes != "" {
		message = message + "\n\n" + notes
	}
	id, err := p.repo.CommitFiles(ctx, message, result.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to commit release: %w", err)
	}
	result.Commit = id

	p.logger.Info(ctx, "committed release", map[string]interface{}{
		"commit": id,
	})
	return result, nil
}

func names(graph *dependents.Graph, ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, graph.Package(id).Name)
	}
	return out
}
