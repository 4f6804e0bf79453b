package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cob/internal/change"
	"cob/internal/changestore"
)

// newExportCmd creates the export command. Export writes every known
// change for an issue as newline-delimited JSON, one wire-encoded change
// per line, suitable for import on another replica.
func newExportCmd(provider *AppProvider) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <issue-id>",
		Short: "Export an issue's changes as newline-delimited JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rootID, err := app.ResolveIssueID(ctx, args[0])
			if err != nil {
				return err
			}
			ids, err := app.Index.Changes(ctx, string(rootID))
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("issue %s: %w", rootID.Short(), changestore.ErrNotFound)
			}

			out := app.Out
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			w := bufio.NewWriter(out)
			for _, id := range ids {
				data, err := app.CAS.Get(ctx, id)
				if err != nil {
					return err
				}
				if _, err := w.Write(data); err != nil {
					return err
				}
				if err := w.WriteByte('\n'); err != nil {
					return err
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(app.Err, "exported %d changes to %s\n", len(ids), outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the bundle to a file instead of stdout")
	return cmd
}

// importReport summarizes what an import did.
type importReport struct {
	IssueID        string   `json:"issue_id"`
	Inserted       int      `json:"inserted"`
	AlreadyPresent int      `json:"already_present"`
	Pending        int      `json:"pending"`
	Rejected       int      `json:"rejected,omitempty"`
	Wants          []string `json:"wants,omitempty"`
}

// newImportCmd creates the import command. Import reads a bundle of
// wire-encoded changes, verifies each, and inserts them into the issue's
// store. Changes whose ancestors are absent from both the bundle and the
// local store are held pending and surfaced as wants.
func newImportCmd(provider *AppProvider) *cobra.Command {
	var issueID string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bundle of changes from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			changes, err := readBundle(in)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				return fmt.Errorf("%w: bundle is empty", change.ErrValidation)
			}

			rootID, err := bundleRoot(ctx, app, changes, issueID)
			if err != nil {
				return err
			}

			store, err := openOrCreateStore(ctx, app, rootID)
			if err != nil {
				return err
			}

			var report importReport
			report.IssueID = string(rootID)
			for _, ch := range changes {
				outcome, err := store.Insert(ctx, ch)
				if err != nil {
					// One poisoned line must not sink the rest of the
					// bundle; the store has already refused it.
					report.Rejected++
					fmt.Fprintf(app.Err, "rejected change %s: %v\n", ch.ID.Short(), err)
					continue
				}
				switch outcome {
				case changestore.Inserted:
					report.Inserted++
				case changestore.AlreadyPresent:
					report.AlreadyPresent++
				case changestore.Pending:
					report.Pending++
				}
			}
			if report.Rejected > 0 && report.Inserted+report.AlreadyPresent+report.Pending == 0 {
				return fmt.Errorf("no changes imported: all %d rejected", report.Rejected)
			}
			for _, want := range store.PendingWants() {
				report.Wants = append(report.Wants, string(want))
			}

			if app.JSON {
				return app.PrintJSON(report)
			}
			fmt.Fprintf(app.Out, "issue %.12s: %d inserted, %d already present, %d pending\n",
				report.IssueID, report.Inserted, report.AlreadyPresent, report.Pending)
			if report.Rejected > 0 {
				fmt.Fprintln(app.Out, app.WarnColor(fmt.Sprintf("%d change(s) rejected", report.Rejected)))
			}
			if len(report.Wants) > 0 {
				fmt.Fprintln(app.Out, app.WarnColor("missing ancestors:"))
				for _, w := range report.Wants {
					fmt.Fprintf(app.Out, "  %s\n", w)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&issueID, "issue", "", "issue the bundle belongs to (required if the bundle has no root change)")
	return cmd
}

// readBundle decodes one wire-encoded change per non-empty line.
func readBundle(r io.Reader) ([]*change.Change, error) {
	var changes []*change.Change
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		ch, err := change.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("bundle line %d: %w", line, err)
		}
		changes = append(changes, ch)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	return changes, nil
}

// bundleRoot decides which issue the bundle belongs to: the explicit
// --issue flag if given, otherwise the unique root change in the bundle.
// A full root id unknown to this replica is accepted verbatim, so a
// rootless bundle can seed an issue the replica has never seen.
func bundleRoot(ctx context.Context, app *App, changes []*change.Change, issueID string) (change.ID, error) {
	if issueID != "" {
		id, err := app.ResolveIssueID(ctx, issueID)
		if err == nil {
			return id, nil
		}
		if errors.Is(err, changestore.ErrNotFound) && isFullID(issueID) {
			return change.ID(issueID), nil
		}
		return "", err
	}
	var roots []change.ID
	for _, ch := range changes {
		if ch.IsRoot() {
			roots = append(roots, ch.ID)
		}
	}
	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		return "", fmt.Errorf("%w: bundle has no root change; pass --issue", change.ErrValidation)
	default:
		return "", fmt.Errorf("%w: bundle has %d root changes; split it and import per issue", change.ErrValidation, len(roots))
	}
}

// isFullID reports whether s is a complete change id: 64 hex chars.
func isFullID(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// openOrCreateStore loads the issue's store if it exists locally, or
// starts a fresh journaled store for a root this replica has never seen.
func openOrCreateStore(ctx context.Context, app *App, rootID change.ID) (*changestore.Store, error) {
	store, err := changestore.Load(ctx, app.CAS, app.Index, rootID, app.Auth)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, changestore.ErrNotFound) {
		return nil, err
	}
	store = changestore.New(app.Auth)
	store.SetJournal(changestore.NewJournal(app.CAS, app.Index, rootID))
	return store, nil
}
