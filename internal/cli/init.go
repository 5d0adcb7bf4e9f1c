package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uptix/pkg/lockfile"
)

// initCommand creates the init command.
func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lockfile.Exists(c.config.LockFile) {
				printWarning(c.Err, "%s already exists", filepath.Base(c.config.LockFile))
				return nil
			}
			if err := lockfile.Init(c.config.LockFile); err != nil {
				return err
			}
			printSuccess(c.Out, "Created %s", c.config.LockFile)
			return nil
		},
	}
}
