package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/conventional"
)

func newListCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspace packages, dependencies first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, deps, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.planner.Packages(s.ctx)
			if err != nil {
				s.log.Error(s.ctx, "failed to list packages", err, nil)
				return describe(err)
			}
			return writePackages(deps, s, names)
		},
	}
}

func newChangedCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "changed [version]",
		Short: "List packages changed in a release, dependencies first",
		Long: `List the packages with at least one change in a release. Without a version
the unreleased changes since the newest version tag are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, deps, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.planner.Changed(s.ctx, versionArg(args))
			if err != nil {
				s.log.Error(s.ctx, "failed to compute changed packages", err, nil)
				return describe(err)
			}
			return writePackages(deps, s, names)
		},
	}
}

func newChangelogCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "changelog [version]",
		Short: "Print the Markdown changelog of a release",
		Long: `Print the Markdown changelog of a release. Without a version the unreleased
changes since the newest version tag are used. Nothing is printed when no
change is worth mentioning.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, deps, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			text, err := s.planner.Changelog(s.ctx, versionArg(args))
			if err != nil {
				s.log.Error(s.ctx, "failed to render changelog", err, nil)
				return describe(err)
			}

			writer, err := deps.OutputWriterFactory("")
			if err != nil {
				return err
			}
			if err := writer.WriteChangelog(text); err != nil {
				s.log.Error(s.ctx, "failed to write output", err, nil)
				return fmt.Errorf("output error: %w", err)
			}
			return nil
		},
	}
}

func newVersionsCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	var format string

	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "List released versions, newest first",
		Long: `List the versions recorded as version tags, newest first. Any of them can be
passed to changed and changelog.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, deps, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			writer, err := deps.OutputWriterFactory(format)
			if err != nil {
				return err
			}

			versions, err := s.planner.Versions(s.ctx)
			if err != nil {
				s.log.Error(s.ctx, "failed to list versions", err, nil)
				return describe(err)
			}
			if err := writer.WriteVersions(versions); err != nil {
				s.log.Error(s.ctx, "failed to write output", err, nil)
				return fmt.Errorf("output error: %w", err)
			}
			return nil
		},
	}

	versionsCmd.Flags().StringVarP(&format, "output", "o", "table",
		"Output format: table, json or yaml")

	return versionsCmd
}

// bumpOptions holds the bump flags.
type bumpOptions struct {
	strategy string
	write    bool
	commit   bool
	output   string
}

func newBumpCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	bo := &bumpOptions{}

	bumpCmd := &cobra.Command{
		Use:   "bump",
		Short: "Plan the next version of every changed package",
		Long: `Propagate the unreleased changes through the workspace dependency graph and
print the resulting version plan. With --write the new versions are written
into the manifests; with --commit the manifests are also committed, with the
changelog as the commit body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBump(cmd, deps, opts, bo)
		},
	}

	bumpCmd.Flags().StringVar(&bo.strategy, "strategy", "interactive",
		"Decision strategy: interactive, minimum or maximum (default from config)")
	bumpCmd.Flags().BoolVar(&bo.write, "write", false,
		"Write the new versions into the manifests")
	bumpCmd.Flags().BoolVar(&bo.commit, "commit", false,
		"Commit the rewritten manifests (implies --write)")
	bumpCmd.Flags().StringVarP(&bo.output, "output", "o", "table",
		"Plan format: table, json or yaml")

	return bumpCmd
}

func runBump(cmd *cobra.Command, deps *Dependencies, opts *rootOptions, bo *bumpOptions) error {
	s, err := openSession(cmd, deps, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	strategy := s.cfg.Strategy
	if cmd.Flags().Changed("strategy") || strategy == "" {
		strategy = bo.strategy
	}

	writer, err := deps.OutputWriterFactory(bo.output)
	if err != nil {
		return err
	}

	stdin := deps.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	decider, err := deps.DeciderFactory(strategy, stdin, s.stderr)
	if err != nil {
		return err
	}

	plan, err := s.planner.Plan(s.ctx, decider)
	if err != nil {
		s.log.Error(s.ctx, "failed to plan release", err, map[string]interface{}{
			"strategy": strategy,
		})
		return describe(err)
	}

	if err := writer.WritePlan(plan); err != nil {
		s.log.Error(s.ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	commit := bo.commit || (bo.write && s.cfg.Commit)
	if !bo.write && !commit {
		return nil
	}
	if plan.IsEmpty() {
		writeStatusf(s.stderr, "nothing to release\n")
		return nil
	}

	result, err := s.planner.Release(s.ctx, plan, commit, s.cfg.Message)
	if err != nil {
		s.log.Error(s.ctx, "failed to release", err, nil)
		return err
	}
	for _, file := range result.Files {
		writeStatusf(s.stderr, "updated %s\n", file)
	}
	if result.Commit != "" {
		writeStatusf(s.stderr, "committed %s\n", result.Commit)
	}
	return nil
}

func newValidateCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check the summary line of a commit message",
		Long: `Check that the first line of a commit message is a conventional commit
summary with the strict policy: a known kind, no surrounding whitespace, no
trailing period and a lower-case first word. Lines starting with '#' are
ignored. The message is read from file, or from stdin when file is omitted
or '-'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, deps, opts)
		},
	}
}

func runValidate(cmd *cobra.Command, args []string, deps *Dependencies, opts *rootOptions) error {
	if deps == nil {
		return fmt.Errorf("dependencies not configured")
	}
	ctx, log, _ := startLogging(cmd, deps, opts)

	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		stdin := deps.Stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read commit message: %w", err)
	}

	summary, ok := summaryLine(string(data))
	if !ok {
		return fmt.Errorf("%w: empty commit message", domain.ErrMalformedFormat)
	}

	change, err := conventional.NewParser(conventional.StrictPolicy()).Parse(summary)
	if err != nil {
		log.Debug(ctx, "rejected commit summary", map[string]interface{}{
			"summary": summary,
			"error":   err.Error(),
		})
		return fmt.Errorf("invalid commit summary %q: %w", summary, err)
	}

	log.Debug(ctx, "accepted commit summary", map[string]interface{}{
		"kind":     change.Kind.String(),
		"breaking": change.Breaking,
	})
	return nil
}

// summaryLine returns the first line of a commit message that is neither
// blank nor a git comment.
func summaryLine(message string) (string, bool) {
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, true
	}
	return "", false
}

func versionArg(args []string) string {
	if len(args) == 0 {
		return domain.Unreleased
	}
	return args[0]
}

func writePackages(deps *Dependencies, s *session, names []string) error {
	writer, err := deps.OutputWriterFactory("")
	if err != nil {
		return err
	}
	if err := writer.WritePackages(names); err != nil {
		s.log.Error(s.ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}
	return nil
}
