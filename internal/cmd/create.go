package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cob/internal/change"
	"cob/internal/changestore"
)

// newCreateCmd creates the create command.
func newCreateCmd(provider *AppProvider) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new issue",
		Long: `Create a new issue with the specified title.

The issue is born as a root change; its content hash becomes the issue ID
used by every other command.

Examples:
  cob create "Login fails on first attempt"
  cob create "Flaky sync test" --description "seen on CI since Tuesday"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			root, err := change.New(app.Identity, &change.CreateIssue{
				Title:       args[0],
				Description: description,
			}, nil)
			if err != nil {
				return err
			}

			store := changestore.New(app.Auth)
			store.SetJournal(changestore.NewJournal(app.CAS, app.Index, root.ID))
			if _, err := store.Insert(ctx, root); err != nil {
				return fmt.Errorf("creating issue: %w", err)
			}

			if app.JSON {
				return app.PrintJSON(map[string]string{"issue_id": string(root.ID)})
			}
			fmt.Fprintln(app.Out, root.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Issue description")
	return cmd
}
