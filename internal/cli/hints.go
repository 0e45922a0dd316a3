package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) hintsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hints <locator> [entity-id]",
		Short: "Show which properties link to other entities",
		Long: `Expand the package with its JSON-LD context and report, per property,
the entities its values reference. Without an entity id every entity
that has linked properties is shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			nav, err := c.openPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if len(args) == 2 {
				view, ok := nav.Entity(args[1])
				if !ok {
					return fmt.Errorf("no entity %q in %s", args[1], nav.Nav().Name)
				}
				printHints(view.ID, view.Hints)
				return nil
			}

			hints := nav.LinkHints()
			if len(hints) == 0 {
				printWarning("No link hints (the context could not be expanded, or nothing links)")
				return nil
			}
			for _, e := range nav.Entities() {
				if props := hints[e.ID]; len(props) > 0 {
					printHints(e.ID, props)
				}
			}
			return nil
		},
	}
	return cmd
}
