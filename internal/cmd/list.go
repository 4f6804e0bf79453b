package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cob/internal/change"
	"cob/internal/changegraph"
	"cob/internal/changestore"
	"cob/internal/projection"
)

// listEntry is one row of list output.
type listEntry struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Title  string `json:"title"`
}

// newListCmd creates the list command.
func newListCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			roots, err := app.Index.Roots(ctx)
			if err != nil {
				return err
			}

			var entries []listEntry
			for _, root := range roots {
				store, err := changestore.Load(ctx, app.CAS, app.Index, change.ID(root), app.Auth)
				if err != nil {
					fmt.Fprintf(app.Err, "skipping %.12s: %v\n", root, err)
					continue
				}
				graph, err := changegraph.Assemble(store.Resolved())
				if err != nil {
					fmt.Fprintf(app.Err, "skipping %.12s: %v\n", root, err)
					continue
				}
				iss, err := projection.Project(graph)
				if err != nil {
					fmt.Fprintf(app.Err, "skipping %.12s: %v\n", root, err)
					continue
				}
				entries = append(entries, listEntry{
					ID:     root,
					Status: string(iss.Status),
					Title:  iss.Title,
				})
			}

			if app.JSON {
				if entries == nil {
					entries = []listEntry{}
				}
				return app.PrintJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.Out, "No issues found")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(app.Out, "%.12s  %-6s  %s\n", e.ID, e.Status, e.Title)
			}
			return nil
		},
	}
}
