package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cob/internal/change"
)

// newSetTitleCmd creates the set-title command.
func newSetTitleCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "set-title <issue-id> <title>",
		Short: "Change an issue's title",
		Args:  cobra.ExactArgs(2),
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
			ch, err := app.Append(ctx, store, graph, &change.SetTitle{Title: args[1]})
			if err != nil {
				return err
			}

			if app.JSON {
				return app.PrintJSON(map[string]string{"change_id": string(ch.ID)})
			}
			fmt.Fprintf(app.Out, "Retitled %s (%s)\n", graph.Root().ID.Short(), ch.ID.Short())
			return nil
		},
	}
}
