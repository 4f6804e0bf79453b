package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cob/internal/projection"
)

// newGetCmd creates the get command.
func newGetCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "get <issue-id>",
		Short: "Show an issue's projected state",
		Long: `Assemble the issue's change graph and fold it into its current state.

The issue ID may be abbreviated to any unique prefix.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, graph, err := app.LoadIssue(ctx, args[0])
			if err != nil {
				return err
			}
			iss, err := projection.Project(graph)
			if err != nil {
				return err
			}

			if app.JSON {
				return app.PrintJSON(iss)
			}
			renderIssue(app, iss)
			if n := store.PendingCount(); n > 0 {
				fmt.Fprintf(app.Out, "\n%s\n", app.WarnColor(fmt.Sprintf("%d change(s) pending missing ancestors", n)))
			}
			return nil
		},
	}
}
