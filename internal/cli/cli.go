// Package cli implements the uptix command-line interface.
//
// uptix scans Nix files for uptix.* declarations, resolves each one to an
// exact revision and records the results in uptix.lock. The CLI is built
// with cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - update: resolve declarations and write the lock file (the default)
//   - list: print the entries of the lock file
//   - show: print one entry of the lock file in detail
//   - init: create an empty lock file
//   - cache: manage the cache of computed source hashes
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Library
// events reach the logger through observability hooks registered before
// each command runs. Loggers are passed through context.Context.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/uptix/pkg/buildinfo"
	"github.com/matzehuels/uptix/pkg/deps"
	"github.com/matzehuels/uptix/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output, Err the spinner. In feeds the
	// interactive picker.
	Out io.Writer
	Err io.Writer
	In  io.Reader

	config  Config
	verbose bool

	// resolvers builds the resolution backends. Tests replace it.
	resolvers func(deps.Options) deps.Resolvers
	// pick runs the interactive selection. Tests replace it.
	pick func([]deps.Dependency) ([]deps.Dependency, error)
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{
		Logger:    newLogger(w, level),
		Out:       os.Stdout,
		Err:       w,
		In:        os.Stdin,
		config:    defaultConfig(),
		resolvers: deps.NewResolvers,
	}
	c.pick = func(declared []deps.Dependency) ([]deps.Dependency, error) {
		return pickDependencies(c.In, c.Out, declared)
	}
	return c
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	lockFile   string
	configPath string
}

// RootCommand creates the root cobra command with all subcommands
// registered. Running the root command without a subcommand updates.
func (c *CLI) RootCommand() *cobra.Command {
	var flags globalFlags
	update := &updateOptions{}

	root := &cobra.Command{
		Use:   "uptix",
		Short: "uptix pins the dependencies of Nix configurations",
		Long: `uptix finds uptix.dockerImage, uptix.githubBranch and uptix.githubRelease
declarations in Nix files, resolves each to an exact digest or revision and
records the results in a lock file that Nix evaluations read back.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd, flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpdate(cmd.Context(), *update)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.lockFile, "lock-file", "l", "", "lock file path (default \"uptix.lock\")")
	pf.StringVar(&flags.configPath, "config", "", "config file path (default \"uptix.toml\" if present)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	update.register(root)

	root.AddCommand(c.updateCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration, applies global flags and wires logging.
func (c *CLI) setup(cmd *cobra.Command, flags globalFlags) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	registerHooks(c.Logger)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))

	path, explicit := DefaultConfigFile, false
	if flags.configPath != "" {
		path, explicit = flags.configPath, true
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	if flags.lockFile != "" {
		cfg.LockFile = flags.lockFile
	}
	c.config = cfg
	c.Logger.Debug("configuration", "lock_file", cfg.LockFile, "root", cfg.Root, "jobs", cfg.Jobs)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. jobs > 0 overrides the
// configured limit.
func (c *CLI) newRunner(jobs int, noCache bool) *pipeline.Runner {
	if jobs <= 0 {
		jobs = c.config.Jobs
	}
	r := c.resolvers(deps.Options{
		Timeout:      c.config.Timeout,
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubAPI:    c.config.GitHubAPI,
		DockerConfig: c.config.DockerConfig,
		HashCommand:  c.config.HashCommand,
		HashCache:    c.hashCache(noCache),
	})
	return pipeline.NewRunner(r, jobs, c.Logger)
}
