package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

// Logger defines the logging interface for the manifest adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// Workspace implements domain.Workspace for a directory tree of manifests.
type Workspace struct {
	root   string
	format Format
	logger Logger
}

// NewWorkspace creates a Workspace rooted at root.
func NewWorkspace(root string, format Format, log Logger) *Workspace {
	return &Workspace{root: root, format: format, logger: log}
}

// Format returns the manifest format of the workspace.
func (w *Workspace) Format() Format {
	return w.format
}

// Packages reads the root manifest and, depth first, every member it
// declares. Member patterns may contain globs. A member directory without
// a manifest is skipped with a warning.
func (w *Workspace) Packages(ctx context.Context) ([]domain.Package, error) {
	rootManifest := filepath.Join(w.root, w.format.File())
	if _, err := os.Stat(rootManifest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrManifestNotFound, rootManifest)
		}
		return nil, err
	}

	visited := make(map[string]bool)
	var packages []domain.Package

	var visit func(dir string) error
	visit = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := w.relative(dir)
		if err != nil {
			return err
		}
		if visited[rel] {
			return nil
		}
		visited[rel] = true

		manifestPath := filepath.Join(dir, w.format.File())
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", manifestPath, err)
		}
		m, err := w.format.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", manifestPath, err)
		}

		packages = append(packages, domain.Package{
			Path:         rel,
			ManifestPath: filepath.ToSlash(filepath.Join(rel, w.format.File())),
			Name:         m.Name,
			Version:      m.Version,
			Dependencies: m.Dependencies,
		})

		for _, pattern := range m.Members {
			matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(pattern)))
			if err != nil {
				return fmt.Errorf("invalid member pattern %q in %s: %w", pattern, manifestPath, err)
			}
			sort.Strings(matches)
			for _, match := range matches {
				if _, err := os.Stat(filepath.Join(match, w.format.File())); err != nil {
					w.logger.Warn(ctx, "skipping workspace member without manifest", map[string]interface{}{
						"member":   match,
						"manifest": w.format.File(),
					})
					continue
				}
				if err := visit(match); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := visit(w.root); err != nil {
		return nil, err
	}

	w.logger.Debug(ctx, "discovered workspace packages", map[string]interface{}{
		"root":     w.root,
		"format":   w.format.Name(),
		"packages": len(packages),
	})
	return packages, nil
}

// Apply rewrites every manifest that declares a bumped package or depends
// on one, and returns the paths of the manifests that changed.
func (w *Workspace) Apply(ctx context.Context, versions domain.VersionMap) ([]string, error) {
	packages, err := w.Packages(ctx)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, pkg := range packages {
		path := filepath.Join(w.root, filepath.FromSlash(pkg.ManifestPath))
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		own := versions[pkg.Name]
		if pkg.Name == "" || pkg.Version == nil {
			own = nil
		}
		updated, err := w.format.Rewrite(data, own, versions)
		if err != nil {
			return nil, fmt.Errorf("failed to rewrite %s: %w", path, err)
		}
		if bytes.Equal(data, updated) {
			continue
		}

		if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		changed = append(changed, pkg.ManifestPath)
		w.logger.Debug(ctx, "rewrote manifest", map[string]interface{}{
			"manifest": pkg.ManifestPath,
			"package":  pkg.Name,
		})
	}
	return changed, nil
}

func (w *Workspace) relative(dir string) (string, error) {
	rel, err := filepath.Rel(w.root, dir)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
