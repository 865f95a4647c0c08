// Package cmd provides the CLI commands for relbump.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/usecases"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/conventional"
)

// Logger defines the logging interface used by the commands.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the commands.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance. It is called after the
	// verbose flag has been applied to the environment.
	LoggerFactory func() Logger

	// ConfigLoader loads application configuration.
	ConfigLoader func(ctx context.Context, opts ConfigOptions) (*AppConfig, error)

	// RepositoryFactory opens the repository containing path.
	RepositoryFactory func(path string, cfg *AppConfig, log Logger) (domain.Repository, error)

	// WorkspaceFactory creates the workspace rooted at root.
	WorkspaceFactory func(root string, cfg *AppConfig, log Logger) (domain.Workspace, error)

	// DeciderFactory creates the decider for a release strategy. Interactive
	// deciders read from in and draw to out.
	DeciderFactory func(strategy string, in io.Reader, out io.Writer) (domain.Decider, error)

	// OutputWriterFactory creates an OutputWriter for a plan format.
	OutputWriterFactory func(format string) (domain.OutputWriter, error)

	// Stdin is read by validate and the interactive decider.
	Stdin io.Reader

	// Stdout is the writer for command results.
	Stdout io.Writer

	// Stderr is the writer for prompts, warnings and errors.
	Stderr io.Writer
}

// ConfigOptions locate the configuration file.
type ConfigOptions struct {
	File      string
	Directory string
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// Ecosystem is the manifest format: auto, cargo or npm.
	Ecosystem string

	// TagPrefix precedes the version in release tags.
	TagPrefix string

	// Strict applies the strict commit summary policy.
	Strict bool

	// Strategy is the default bump decision strategy.
	Strategy string

	// Commit commits rewritten manifests after bump --write.
	Commit bool

	// Message is the release commit summary.
	Message string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	config    string
	directory string
	verbose   bool
}

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for relbump.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "relbump",
		Short: "Compute changelogs and version bumps for monorepo packages",
		Long: `relbump reads conventional commit summaries from Git history, attributes
them to the workspace packages whose files they touch, and derives a
changelog and the next semantic version of every package.

Version bumps propagate along workspace dependencies: when a dependency is
released, its dependents are released too. Where more than one increment is
possible, the bump strategy decides.

Examples:
  # List packages, dependencies first
  relbump list

  # Changelog of everything since the last release
  relbump changelog

  # Released versions, then the changelog of one of them
  relbump versions
  relbump changelog 1.4.0

  # Plan the next release without prompting
  relbump bump --strategy minimum

  # Write versions into the manifests and commit them
  relbump bump --write --commit

  # Use as a commit-msg hook
  relbump validate .git/COMMIT_EDITMSG`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.config, "config", "",
		"Config file (default is .relbump.yaml in the workspace directory)")
	rootCmd.PersistentFlags().StringVarP(&opts.directory, "directory", "C", ".",
		"Workspace directory")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	rootCmd.AddCommand(
		newListCmd(deps, opts),
		newChangedCmd(deps, opts),
		newChangelogCmd(deps, opts),
		newBumpCmd(deps, opts),
		newValidateCmd(deps, opts),
		newVersionsCmd(deps, opts),
	)

	return rootCmd
}

// session is the state shared by commands that read the workspace.
type session struct {
	ctx     context.Context
	log     Logger
	cfg     *AppConfig
	repo    domain.Repository
	planner *usecases.Planner
	stdout  io.Writer
	stderr  io.Writer
}

// Close releases the repository.
func (s *session) Close() {
	if err := s.repo.Close(); err != nil {
		s.log.Warn(s.ctx, "failed to close git repository", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// startLogging applies the verbose flag and creates the logger.
func startLogging(cmd *cobra.Command, deps *Dependencies, opts *rootOptions) (context.Context, Logger, io.Writer) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if opts.verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	return ctx, deps.LoggerFactory(), stderr
}

// openSession loads configuration, opens the repository and workspace and
// creates the planner.
func openSession(cmd *cobra.Command, deps *Dependencies, opts *rootOptions) (*session, error) {
	if deps == nil {
		return nil, errors.New("dependencies not configured")
	}

	ctx, log, stderr := startLogging(cmd, deps, opts)

	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	log.Info(ctx, "starting relbump", map[string]interface{}{
		"command":   cmd.Name(),
		"directory": opts.directory,
		"verbose":   opts.verbose,
	})

	cfg, err := deps.ConfigLoader(ctx, ConfigOptions{File: opts.config, Directory: opts.directory})
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	repo, err := deps.RepositoryFactory(opts.directory, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": opts.directory,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return nil, fmt.Errorf("not a git repository: %s", opts.directory)
		}
		return nil, err
	}

	workspace, err := deps.WorkspaceFactory(opts.directory, cfg, log)
	if err != nil {
		if closeErr := repo.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close git repository", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
		log.Error(ctx, "failed to open workspace", err, nil)
		return nil, describe(err)
	}

	parser := conventional.NewParser(conventional.Policy{})
	if cfg.Strict {
		parser = conventional.NewParser(conventional.StrictPolicy())
	}

	planner := usecases.NewPlanner(repo, workspace, parser, log,
		usecases.WithWorkspacePath(workspacePath(ctx, log, repo.Root(), opts.directory)))

	return &session{
		ctx:     ctx,
		log:     log,
		cfg:     cfg,
		repo:    repo,
		planner: planner,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

// workspacePath returns dir relative to the repository root, or "." when
// it cannot be expressed that way.
func workspacePath(ctx context.Context, log Logger, root, dir string) string {
	if root == "" {
		return "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		log.Warn(ctx, "workspace is outside the repository root", map[string]interface{}{
			"root":      root,
			"directory": abs,
		})
		return "."
	}
	return filepath.ToSlash(rel)
}

// describe maps domain errors to user-facing messages.
func describe(err error) error {
	switch {
	case errors.Is(err, domain.ErrManifestNotFound):
		return fmt.Errorf("no Cargo.toml or package.json found: %w", err)
	case errors.Is(err, domain.ErrUnsupportedEcosystem):
		return fmt.Errorf("unsupported ecosystem: %w", err)
	case errors.Is(err, domain.ErrCyclicDependency):
		return fmt.Errorf("workspace dependencies form a cycle: %w", err)
	case errors.Is(err, domain.ErrDuplicatePackage):
		return fmt.Errorf("package names must be unique: %w", err)
	case errors.Is(err, domain.ErrUnknownVersion):
		return fmt.Errorf("unknown release: %w", err)
	case errors.Is(err, domain.ErrDecisionAborted):
		return fmt.Errorf("release aborted: %w", err)
	default:
		return err
	}
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		return
	}
}

// writeStatusf writes a progress note to the given writer, best-effort.
func writeStatusf(w io.Writer, format string, args ...any) {
	writeWarningf(w, format, args...)
}
