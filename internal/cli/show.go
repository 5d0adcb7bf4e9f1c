package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/uptix/pkg/deps"
	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/pipeline"
)

// showCommand creates the show command.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <dependency>",
		Short: "Show the locked version of a dependency",
		Long: `Show the lock file entries matching a dependency name or key.

Images match by name with or without the tag; GitHub releases match by
owner/repo; branches match by their full key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(args[0])
		},
	}
}

func (c *CLI) runShow(pattern string) error {
	if err := errors.ValidatePattern(pattern); err != nil {
		return err
	}
	store, ok, err := c.loadExisting()
	if err != nil || !ok {
		return err
	}

	var keys []string
	for _, d := range deps.Select(pipeline.Stored(store), pattern) {
		keys = append(keys, d.Key())
	}
	if len(keys) == 0 {
		if _, ok := store.Get(pattern); ok {
			keys = []string{pattern}
		}
	}
	if len(keys) == 0 {
		printWarning(c.Err, "Dependency '%s' not found", pattern)
		return nil
	}

	for i, key := range keys {
		if i > 0 {
			fmt.Fprintln(c.Out)
		}
		entry, _ := store.Get(key)
		typ, version := describe(key, entry)

		fmt.Fprintln(c.Out, "Dependency: "+StyleHighlight.Render(key))
		fmt.Fprintln(c.Out, "Locked version: "+StyleValue.Render(version))
		printKeyValue(c.Out, "Type", typ)
		m := entry.Metadata
		for _, kv := range [][2]string{
			{"Name", m.Name},
			{"Selected", m.SelectedVersion},
			{"Resolved", m.ResolvedVersion},
			{"Published", m.Timestamp},
			{"Description", m.Description},
		} {
			if kv[1] != "" {
				printKeyValue(c.Out, kv[0], kv[1])
			}
		}
	}
	return nil
}
