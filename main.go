// Package main is the entry point for the relbump CLI application.
// relbump derives changelogs and semantic version bumps for the packages of
// a Cargo or npm workspace from conventional commit history.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/relbump/cmd"
	"github.com/MyCarrier-DevOps/relbump/internal/adapters/decider"
	"github.com/MyCarrier-DevOps/relbump/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/relbump/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/relbump/internal/adapters/manifest"
	"github.com/MyCarrier-DevOps/relbump/internal/adapters/output"
	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/infrastructure/config"
)

func main() {
	var adapter *logadapter.ZapAdapter

	// Wire up production dependencies
	deps := &cmd.Dependencies{
		// Created lazily so that --verbose can raise LOG_LEVEL first.
		LoggerFactory: func() cmd.Logger {
			if adapter == nil {
				adapter = logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig())
			}
			return adapter
		},

		ConfigLoader: loadConfig,

		RepositoryFactory: func(path string, cfg *cmd.AppConfig, log cmd.Logger) (domain.Repository, error) {
			return git.NewGoGitRepository(path, component(log, "git"), git.WithTagPrefix(cfg.TagPrefix))
		},

		WorkspaceFactory: func(root string, cfg *cmd.AppConfig, log cmd.Logger) (domain.Workspace, error) {
			return newWorkspace(root, cfg, component(log, "manifest"))
		},

		DeciderFactory: func(strategy string, in io.Reader, out io.Writer) (domain.Decider, error) {
			return decider.ForStrategy(strategy, in, out)
		},

		OutputWriterFactory: func(format string) (domain.OutputWriter, error) {
			return newOutputWriter(os.Stdout, format)
		},

		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

func loadConfig(ctx context.Context, opts cmd.ConfigOptions) (*cmd.AppConfig, error) {
	cfg, err := config.Load(ctx, config.Options{File: opts.File, Directory: opts.Directory})
	if err != nil {
		return nil, err
	}
	return toAppConfig(cfg), nil
}

func toAppConfig(cfg *config.Config) *cmd.AppConfig {
	return &cmd.AppConfig{
		Ecosystem:  cfg.Ecosystem,
		TagPrefix:  cfg.TagPrefix,
		Strict:     cfg.Commits.Strict,
		Strategy:   cfg.Release.Strategy,
		Commit:     cfg.Release.Commit,
		Message:    cfg.Release.Message,
		LogLevel:   cfg.LogLevel,
		LogAppName: cfg.LogAppName,
	}
}

func newWorkspace(root string, cfg *cmd.AppConfig, log manifest.Logger) (*manifest.Workspace, error) {
	format, err := manifest.Resolve(root, cfg.Ecosystem)
	if err != nil {
		return nil, err
	}
	return manifest.NewWorkspace(root, format, log), nil
}

func newOutputWriter(out io.Writer, format string) (*output.Writer, error) {
	if format == "" {
		format = output.FormatTable
	}
	if !output.ValidFormat(format) {
		return nil, fmt.Errorf("%w: %s (want table, json or yaml)", output.ErrUnsupportedFormat, format)
	}
	return output.NewWriterWithOutput(out, output.WithFormat(format)), nil
}

// component tags the entries of log with the component name when log is
// the zap adapter.
func component(log cmd.Logger, name string) cmd.Logger {
	if zap, ok := log.(*logadapter.ZapAdapter); ok {
		return zap.Component(name)
	}
	return log
}
