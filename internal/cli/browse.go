package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <locator> [nested-reference...]",
		Short: "Browse a package interactively",
		Long: `Open a package in an interactive terminal browser. Walk the hierarchy,
fold datasets, open nested packages with enter, go back with b, jump to
the root package with t and search everything loaded so far with /.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return fmt.Errorf("browse needs an interactive terminal; try %s", styleCommand.Render("crateview tree "+args[0]))
			}
			ctx := cmd.Context()
			nav, err := c.openPackage(ctx, args[0], args[1:]...)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewBrowseModel(ctx, nav), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}
}
