package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newChangeGraphCmd creates the changegraph command.
func newChangeGraphCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "changegraph <issue-id>",
		Short: "Print an issue's change graph in graphviz dot format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			_, graph, err := app.LoadIssue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(app.Out, graph.Dot())
			return nil
		},
	}
}
