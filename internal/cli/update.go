package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uptix/pkg/deps"
	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/lockfile"
	"github.com/matzehuels/uptix/pkg/pipeline"
	"github.com/matzehuels/uptix/pkg/source"
)

// updateOptions holds the update flags. They are registered on both the
// root command and "update" so a bare `uptix -d postgres` works.
type updateOptions struct {
	dependency  string
	interactive bool
	jobs        int
	noCache     bool
}

func (o *updateOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dependency, "dependency", "d", "", "only update dependencies matching this name or key")
	cmd.Flags().BoolVarP(&o.interactive, "interactive", "i", false, "choose the dependencies to update")
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", 0, "number of concurrent resolutions")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "hash every source again instead of using cached hashes")
	cmd.MarkFlagsMutuallyExclusive("dependency", "interactive")
}

// updateCommand creates the update command.
func (c *CLI) updateCommand() *cobra.Command {
	opts := &updateOptions{}
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Resolve declarations and write the lock file",
		Long: `Resolve every uptix declaration below the project root and write the lock file.

With --dependency only matching dependencies are resolved and merged into the
existing lock file; all other entries stay exactly as they are.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpdate(cmd.Context(), *opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) runUpdate(ctx context.Context, opts updateOptions) error {
	if opts.jobs < 0 {
		return errors.New(errors.ErrCodeUsage, "--jobs must not be negative")
	}
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	files, err := source.Discover(c.config.Root, c.config.Exclude)
	if err != nil {
		return err
	}
	printInfo(c.Out, "Found %d nix files", len(files))

	runner := c.newRunner(opts.jobs, opts.noCache)
	declared, err := runner.Collect(ctx, files)
	if err != nil {
		return err
	}

	switch {
	case opts.dependency != "":
		err = c.updateSelected(ctx, runner, declared, opts.dependency)
	case opts.interactive:
		err = c.updateInteractive(ctx, runner, declared)
	default:
		err = c.updateAll(ctx, runner, declared)
	}
	if err != nil {
		return err
	}
	prog.done("Update finished")
	return nil
}

// updateAll rebuilds the lock file from scratch. Nothing is written when a
// single dependency fails.
func (c *CLI) updateAll(ctx context.Context, runner *pipeline.Runner, declared []deps.Dependency) error {
	spin := c.spinner(ctx, fmt.Sprintf("Resolving %d dependencies...", len(declared)))
	f, err := runner.Rebuild(ctx, declared)
	if err != nil {
		spin.Stop()
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("Resolved %d dependencies", len(declared)))

	if err := runner.Commit(ctx, f, c.config.LockFile); err != nil {
		return err
	}
	printFile(c.Out, c.config.LockFile)
	return nil
}

func (c *CLI) updateSelected(ctx context.Context, runner *pipeline.Runner, declared []deps.Dependency, pattern string) error {
	store, err := lockfile.Load(c.config.LockFile)
	if err != nil {
		return err
	}

	spin := c.spinner(ctx, fmt.Sprintf("Resolving '%s'...", pattern))
	report, err := runner.Selective(ctx, declared, store, pattern)
	spin.Stop()
	if errors.Is(err, errors.ErrCodeNotFound) {
		printWarning(c.Err, "%s", errors.UserMessage(err))
		return nil
	}
	if err != nil {
		return err
	}
	printInfo(c.Out, "Found %d dependencies matching '%s'", len(report.Matched), pattern)
	return c.commitReport(ctx, runner, store, report)
}

func (c *CLI) updateInteractive(ctx context.Context, runner *pipeline.Runner, declared []deps.Dependency) error {
	if len(declared) == 0 {
		printWarning(c.Err, "No dependencies declared")
		return nil
	}
	chosen, err := c.pick(declared)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "interactive selection")
	}
	if len(chosen) == 0 {
		printInfo(c.Out, "No dependencies selected")
		return nil
	}

	store, err := lockfile.Load(c.config.LockFile)
	if err != nil {
		return err
	}
	spin := c.spinner(ctx, fmt.Sprintf("Resolving %d dependencies...", len(chosen)))
	report, err := runner.Update(ctx, chosen, store)
	spin.Stop()
	if err != nil {
		return err
	}
	return c.commitReport(ctx, runner, store, report)
}

// commitReport writes the successful part of a partial update and turns
// failures into a command error.
func (c *CLI) commitReport(ctx context.Context, runner *pipeline.Runner, store *lockfile.File, report *pipeline.Report) error {
	for _, key := range report.Updated {
		entry, _ := store.Get(key)
		printSuccess(c.Out, "%s %s", StyleHighlight.Render(key), StyleDim.Render(entry.Version()))
	}
	for _, f := range report.Failed {
		printError(c.Out, "%s: %s", f.Key, errors.UserMessage(f.Err))
	}

	if len(report.Updated) > 0 {
		if err := runner.Commit(ctx, store, c.config.LockFile); err != nil {
			return err
		}
		printFile(c.Out, c.config.LockFile)
	}
	if len(report.Failed) > 0 {
		keys := make([]string, len(report.Failed))
		for i, f := range report.Failed {
			keys[i] = f.Key
		}
		return fmt.Errorf("%d of %d dependencies failed to resolve: %s",
			len(report.Failed), len(report.Matched), strings.Join(keys, ", "))
	}
	return nil
}

// spinner starts a progress spinner unless verbose logs would interleave
// with it.
func (c *CLI) spinner(ctx context.Context, message string) *Spinner {
	s := newSpinner(ctx, c.Err, message)
	if !c.verbose {
		s.Start()
	}
	return s
}
