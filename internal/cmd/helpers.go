package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"cob/internal/issue"
)

// printJSONTo writes v as indented JSON; used by commands that run
// before an App exists.
func printJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// shortAuthor abbreviates an author public key for display.
func shortAuthor(author string) string {
	if len(author) <= 12 {
		return author
	}
	return author[:12]
}

// renderIssue pretty-prints a projected issue.
func renderIssue(app *App, iss *issue.Issue) {
	status := string(iss.Status)
	if iss.Status == issue.StatusOpen {
		status = app.SuccessColor(status)
	}
	fmt.Fprintf(app.Out, "Title:  %s\n", iss.Title)
	fmt.Fprintf(app.Out, "Status: %s\n", status)
	fmt.Fprintf(app.Out, "ID:     %s\n", iss.ID)
	fmt.Fprintf(app.Out, "Author: %s\n", shortAuthor(iss.Author))
	if iss.Description != "" {
		fmt.Fprintf(app.Out, "\n%s\n", iss.Description)
	}

	if len(iss.Comments) > 0 {
		fmt.Fprintf(app.Out, "\nComments:\n")
		for _, c := range iss.Comments {
			fmt.Fprintf(app.Out, "  %d. [%s] %s", c.Order+1, shortAuthor(c.Author), c.Body)
			switch {
			case c.OrphanReply:
				fmt.Fprintf(app.Out, " %s", app.WarnColor("(reply to unknown comment)"))
			case c.ReplyTo != "":
				fmt.Fprintf(app.Out, " (reply to %s)", c.ReplyTo.Short())
			}
			fmt.Fprintln(app.Out)
		}
	}

	if len(iss.Annotations) > 0 {
		fmt.Fprintf(app.Out, "\nWarnings:\n")
		for _, a := range iss.Annotations {
			fmt.Fprintf(app.Out, "  - %s: change %s", a.Kind, a.ChangeID.Short())
			if a.Detail != "" {
				fmt.Fprintf(app.Out, " (%s)", a.Detail)
			}
			fmt.Fprintln(app.Out)
		}
	}
}
