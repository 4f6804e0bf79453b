package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cob/internal/change"
)

// newAddCommentCmd creates the add-comment command.
func newAddCommentCmd(provider *AppProvider) *cobra.Command {
	var replyTo string

	cmd := &cobra.Command{
		Use:   "add-comment <issue-id> <body>",
		Short: "Add a comment to an issue",
		Long: `Add a comment to an issue. Pass "-" as the body to read it from stdin.

Use --reply-to with the change ID of an earlier comment to thread the
new comment under it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			body := args[1]
			if body == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading comment body from stdin: %w", err)
				}
				body = strings.TrimSpace(string(data))
			}

			store, graph, err := app.LoadIssue(ctx, args[0])
			if err != nil {
				return err
			}
			ch, err := app.Append(ctx, store, graph, &change.AddComment{
				Body:    body,
				ReplyTo: change.ID(replyTo),
			})
			if err != nil {
				return err
			}

			if app.JSON {
				return app.PrintJSON(map[string]string{
					"comment_id": string(ch.ID),
					"issue_id":   string(graph.Root().ID),
				})
			}
			fmt.Fprintln(app.Out, ch.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&replyTo, "reply-to", "", "Change ID of the comment this replies to")
	return cmd
}
