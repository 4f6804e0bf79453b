package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cob/internal/change"
)

// newCloseCmd creates the close command.
func newCloseCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "close <issue-id>",
		Short: "Close an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(provider, cmd, args[0], change.StatusClosed)
		},
	}
}

// newReopenCmd creates the reopen command.
func newReopenCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <issue-id>",
		Short: "Reopen a closed issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setStatus(provider, cmd, args[0], change.StatusOpen)
		},
	}
}

func setStatus(provider *AppProvider, cmd *cobra.Command, issueID, status string) error {
	app, err := provider.Get()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	store, graph, err := app.LoadIssue(ctx, issueID)
	if err != nil {
		return err
	}
	ch, err := app.Append(ctx, store, graph, &change.SetStatus{Status: status})
	if err != nil {
		return err
	}

	if app.JSON {
		return app.PrintJSON(map[string]string{"change_id": string(ch.ID), "status": status})
	}
	fmt.Fprintf(app.Out, "Issue %s is now %s\n", graph.Root().ID.Short(), status)
	return nil
}
