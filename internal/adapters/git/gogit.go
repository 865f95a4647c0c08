// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.Repository interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// DefaultTagPrefix precedes the version in release tags, as in v1.2.3.
const DefaultTagPrefix = "v"

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Option configures a GoGitRepository.
type Option func(*GoGitRepository)

// WithTagPrefix sets the prefix of release tags.
func WithTagPrefix(prefix string) Option {
	return func(r *GoGitRepository) {
		r.tagPrefix = prefix
	}
}

// GoGitRepository implements domain.Repository using go-git/v5.
type GoGitRepository struct {
	repo      *git.Repository
	path      string
	root      string
	tagPrefix string
	logger    Logger
}

// NewGoGitRepository opens the repository containing path.
// Returns domain.ErrRepositoryNotFound if path is not inside a Git repository.
func NewGoGitRepository(path string, log Logger, opts ...Option) (*GoGitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, path)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	r := &GoGitRepository{
		repo:      repo,
		path:      path,
		root:      root,
		tagPrefix: DefaultTagPrefix,
		logger:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Root returns the working tree root directory.
func (r *GoGitRepository) Root() string {
	return r.root
}

// Versions returns every tag of the form <prefix><semver>, newest version first.
// Annotated tags are resolved to the commit they point at.
func (r *GoGitRepository) Versions(ctx context.Context) ([]domain.TaggedVersion, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	var versions []domain.TaggedVersion
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		raw, ok := strings.CutPrefix(name, r.tagPrefix)
		if !ok {
			return nil
		}
		version, err := semver.StrictNewVersion(raw)
		if err != nil {
			r.logger.Debug(ctx, "ignoring non-version tag", map[string]interface{}{
				"tag": name,
			})
			return nil
		}

		commit, err := r.tagCommit(ref)
		if err != nil {
			r.logger.Warn(ctx, "ignoring tag without commit", map[string]interface{}{
				"tag":   name,
				"error": err.Error(),
			})
			return nil
		}

		versions = append(versions, domain.TaggedVersion{
			Tag:     name,
			Version: version,
			Commit:  commit.String(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Version.GreaterThan(versions[j].Version)
	})

	r.logger.Debug(ctx, "resolved version tags", map[string]interface{}{
		"count": len(versions),
	})
	return versions, nil
}

func (r *GoGitRepository) tagCommit(ref *plumbing.Reference) (plumbing.Hash, error) {
	tag, err := r.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, err
	}
}

// Commits walks from rng.From (HEAD when empty) in commit-time order and
// stops at commits reachable from rng.Until. Each commit carries the paths
// it changed relative to its first parent.
func (r *GoGitRepository) Commits(ctx context.Context, rng domain.CommitRange) ([]domain.Commit, error) {
	from, err := r.resolve(rng.From)
	if err != nil {
		return nil, err
	}

	seen := map[plumbing.Hash]bool{}
	if rng.Until != "" {
		until, err := r.resolve(rng.Until)
		if err != nil {
			return nil, err
		}
		err = object.NewCommitIterCTime(until, nil, nil).ForEach(func(c *object.Commit) error {
			seen[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk history of %s: %w", rng.Until, err)
		}
	}

	var commits []domain.Commit
	iter := object.NewCommitIterCTime(from, seen, nil)
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		paths, err := changedPaths(c)
		if err != nil {
			return fmt.Errorf("failed to diff commit %s: %w", c.Hash, err)
		}

		summary, body, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		commits = append(commits, domain.Commit{
			ID:      c.Hash.String(),
			Summary: strings.TrimSpace(summary),
			Body:    strings.TrimSpace(body),
			Paths:   paths,
		})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}

	r.logger.Debug(ctx, "walked commit range", map[string]interface{}{
		"from":          rng.From,
		"until":         rng.Until,
		"commits_found": len(commits),
	})

	return commits, nil
}

func (r *GoGitRepository) resolve(rev string) (*object.Commit, error) {
	if rev == "" {
		head, err := r.repo.Head()
		if err != nil {
			return nil, fmt.Errorf("failed to get HEAD: %w", err)
		}
		rev = head.Hash().String()
	}

	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object for %s: %w", rev, err)
	}
	return commit, nil
}

// changedPaths diffs the commit against its first parent, or against the
// empty tree for a root commit. Renames contribute both paths.
func changedPaths(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var parentTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	for _, change := range changes {
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name != "" && !seen[name] {
				seen[name] = true
				paths = append(paths, name)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// CommitFiles stages paths relative to the working tree root and commits
// them with the author configured for the repository.
func (r *GoGitRepository) CommitFiles(ctx context.Context, message string, paths []string) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	for _, p := range paths {
		if _, err := wt.Add(filepath.ToSlash(p)); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}

	hash, err := wt.Commit(message, &git.CommitOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Debug(ctx, "created release commit", map[string]interface{}{
		"commit": hash.String(),
		"files":  len(paths),
	})
	return hash.String(), nil
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}
