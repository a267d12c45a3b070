package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/schemagen/internal/cli/ui"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared classes, embedded classes first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := opts.loadRegistry()
			if err != nil {
				return err
			}
			order, err := registry.DependencyOrder()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			table := ui.NewTable(out, []string{"CLASS", "KIND", "NAME", "FIELDS", "SEARCH FIELDS", "KEYS"}, &ui.TableOptions{NoColor: opts.noColor})
			for _, ref := range order {
				c, _ := registry.Class(ref)
				table.AddRow(
					string(c.Ref),
					c.Kind.String(),
					c.Name,
					fmt.Sprintf("%d", len(c.Fields)),
					fmt.Sprintf("%d", len(c.SearchFields)),
					fmt.Sprintf("%d", len(c.PrimaryKeys)),
				)
			}
			table.Render()

			stats := registry.Stats()
			fmt.Fprintf(out, "\n%d classes: %d collections, %d indexes, %d embedded\n",
				stats.TotalClasses, stats.Collections, stats.Indexes, stats.Embedded)
			return nil
		},
	}
}
