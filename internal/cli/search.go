package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) searchCommand() *cobra.Command {
	var (
		limit     int
		threshold float64
		nested    []string
	)

	cmd := &cobra.Command{
		Use:   "search <locator> <query>",
		Short: "Fuzzy search the entities of a package",
		Long: `Search the flattened text of every entity. Query tokens tolerate
typos; results are ranked best first. With --nested, the listed nested
packages are opened too and searched together with the root package.`,
		Example: `  crateview search ./survey "temperture readings"
  crateview search ./survey author --nested sub/ --limit 5`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if cmd.Flags().Changed("threshold") {
				if threshold < 0 || threshold > 1 {
					return fmt.Errorf("--threshold must be within [0, 1]")
				}
				cfg.Search.Threshold = threshold
			}
			if limit <= 0 {
				limit = cfg.Search.Limit
			}

			nav, err := c.openPackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, ref := range nested {
				if _, err := nav.OpenNestedPackage(cmd.Context(), ref); err != nil {
					return err
				}
			}

			query := strings.Join(args[1:], " ")
			results := nav.Search(cmd.Context(), query, limit)
			if len(results) == 0 {
				printWarning("No matches for %q", query)
				return nil
			}
			printInfo("%d %s for %s", len(results), plural(len(results), "match", "matches"), StyleHighlight.Render(query))
			printResults(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from config)")
	cmd.Flags().Float64Var(&threshold, "threshold", DefaultThreshold, "largest accepted per-token score, 0 to 1")
	cmd.Flags().StringSliceVar(&nested, "nested", nil, "nested package references to load and search as well")
	return cmd
}
