package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/uptix/pkg/deps"
	"github.com/matzehuels/uptix/pkg/lockfile"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the dependencies in the lock file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList()
		},
	}
}

func (c *CLI) runList() error {
	store, ok, err := c.loadExisting()
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(c.Out, StyleTitle.Render(fmt.Sprintf("Dependencies in %s:", filepath.Base(c.config.LockFile))))
	if store.Len() == 0 {
		printDetail(c.Out, "(empty)")
		return nil
	}

	rows := make([][]string, 0, store.Len())
	for _, key := range store.Keys() {
		entry, _ := store.Get(key)
		typ, version := describe(key, entry)
		rows = append(rows, []string{key, typ, version})
	}

	t := newTable(func(row, col int) lipgloss.Style {
		switch col {
		case 0:
			return StyleHighlight.Padding(0, 1)
		case 1:
			return StyleDim.Padding(0, 1)
		default:
			return StyleValue.Padding(0, 1)
		}
	}, "Dependency", "Type", "Version").Rows(rows...)
	fmt.Fprintln(c.Out, t.Render())
	return nil
}

// loadExisting loads the configured lock file. ok is false, with a message
// printed, when the file does not exist.
func (c *CLI) loadExisting() (*lockfile.File, bool, error) {
	if !lockfile.Exists(c.config.LockFile) {
		printWarning(c.Err, "No %s file found", filepath.Base(c.config.LockFile))
		return nil, false, nil
	}
	store, err := lockfile.Load(c.config.LockFile)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

// describe returns the display type and version of a stored entry.
// Entries that cannot be reconstructed fall back to their raw fields.
func describe(key string, entry lockfile.Entry) (typ, version string) {
	d, ok := deps.FromLockEntry(key, entry)
	if !ok {
		return entry.Type(), entry.Version()
	}
	resolved := entry.Metadata.ResolvedVersion
	if entry.Legacy || resolved == "" {
		resolved = entry.Version()
	}
	version = entry.Metadata.FriendlyVersion
	if version == "" {
		version = d.FriendlyVersion(resolved)
	}
	return d.TypeDisplay(entry.Metadata.SelectedVersion), version
}
