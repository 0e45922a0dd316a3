package cli

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crateview/pkg/tree"
)

func (c *CLI) treeCommand() *cobra.Command {
	var (
		depth   int
		match   string
		showIDs bool
	)

	cmd := &cobra.Command{
		Use:   "tree <locator> [nested-reference...]",
		Short: "Print the package hierarchy",
		Long: `Print the hierarchy reachable from the root dataset through hasPart.
Entities reached again on the same path are shown as links, missing
entities as broken links.

--match keeps only nodes whose identifier or name matches a glob pattern
(with ** support), together with their ancestors.`,
		Example: `  crateview tree ./survey
  crateview tree ./survey --match '**/*.csv' --ids`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if match != "" && !doublestar.ValidatePattern(match) {
				return fmt.Errorf("invalid --match pattern %q", match)
			}
			nav, err := c.openPackage(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}

			root := nav.Tree()
			if match != "" {
				root = filterTree(root, match)
				if root == nil {
					printWarning("No entries match %s", match)
					return nil
				}
			}
			writeTree(cmd.OutOrStdout(), root, depth, showIDs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "maximum depth to print (0 = unlimited)")
	cmd.Flags().StringVarP(&match, "match", "m", "", "only show nodes matching this glob")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show entity identifiers next to names")
	return cmd
}

// filterTree returns a copy of n holding only the nodes that match pattern
// and their ancestors. A matching node keeps its whole subtree. It returns
// nil when nothing matches.
func filterTree(n *tree.Node, pattern string) *tree.Node {
	if nodeMatches(n, pattern) {
		return n
	}
	var kept []*tree.Node
	for _, c := range n.Children {
		if fc := filterTree(c, pattern); fc != nil {
			kept = append(kept, fc)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	cp := *n
	cp.Children = kept
	return &cp
}

func nodeMatches(n *tree.Node, pattern string) bool {
	id := strings.TrimSuffix(n.ID, "/")
	if ok, _ := doublestar.Match(pattern, id); ok {
		return true
	}
	ok, _ := doublestar.Match(pattern, n.Name)
	return ok
}
