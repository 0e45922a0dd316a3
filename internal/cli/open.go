package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crateview/pkg/tree"
)

func (c *CLI) openCommand() *cobra.Command {
	var showTree bool

	cmd := &cobra.Command{
		Use:   "open <locator> [nested-reference...]",
		Short: "Load a package and summarize it",
		Long: `Load a package from a URL, directory, metadata file or zip archive and
print a summary. Further arguments are nested package references, each
resolved against the package opened before it.`,
		Example: `  crateview open https://example.org/crates/survey/
  crateview open ./survey sub/ro-crate-metadata.json
  crateview open survey.zip --tree`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nav, err := c.openPackage(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}

			printSuccess("Opened %s", StyleTitle.Render(nav.Nav().Name))
			printNav(nav)

			root := nav.Tree()
			if showTree && root != nil {
				printNewline()
				writeTree(cmd.OutOrStdout(), root, 0, false)
			}

			if nested := nestedPackages(root); len(nested) > 0 {
				printNewline()
				printInfo("%d nested %s", len(nested), plural(len(nested), "package", "packages"))
				for _, id := range nested {
					printFile(id)
				}
				printNextStep("Open one with", fmt.Sprintf("crateview open %s %s", args[0], nested[0]))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTree, "tree", false, "print the hierarchy after the summary")
	return cmd
}

// nestedPackages lists the ids of nested package nodes, in tree order and
// without repeats.
func nestedPackages(root *tree.Node) []string {
	if root == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	root.Walk(func(n *tree.Node, _ int) bool {
		if n.Nested && !seen[n.ID] {
			seen[n.ID] = true
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
