// Package cmd implements the cob command-line interface.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"cob/internal/change"
	"cob/internal/changegraph"
	"cob/internal/changestore"
	"cob/internal/config"
	"cob/internal/identity"
	"cob/internal/objectstore"
)

// App holds application state shared across commands.
type App struct {
	CobDir   string
	Config   *config.Config
	Identity *identity.Identity
	Auth     identity.Authorizer
	CAS      *objectstore.CAS
	Index    *objectstore.Index
	Logger   *slog.Logger
	Out      io.Writer
	Err      io.Writer
	JSON     bool

	closers []func() error
}

// Close releases storage engine resources.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoadIssue rehydrates the change store for an issue and assembles its
// graph. id may be a unique prefix of the root change id.
func (a *App) LoadIssue(ctx context.Context, id string) (*changestore.Store, *changegraph.Graph, error) {
	rootID, err := a.ResolveIssueID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	store, err := changestore.Load(ctx, a.CAS, a.Index, rootID, a.Auth)
	if err != nil {
		return nil, nil, err
	}
	graph, err := changegraph.Assemble(store.Resolved())
	if err != nil {
		return nil, nil, fmt.Errorf("issue %s: %w", rootID.Short(), err)
	}
	return store, graph, nil
}

// Append builds a change parented on the graph's current tips, signs it
// with the local identity, and inserts it.
func (a *App) Append(ctx context.Context, store *changestore.Store, graph *changegraph.Graph, payload change.Payload) (*change.Change, error) {
	ch, err := change.New(a.Identity, payload, graph.Tips())
	if err != nil {
		return nil, err
	}
	if _, err := store.Insert(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// ResolveIssueID expands a (possibly abbreviated) issue id against the
// known roots. A prefix must match exactly one root.
func (a *App) ResolveIssueID(ctx context.Context, id string) (change.ID, error) {
	if id == "" {
		return "", fmt.Errorf("issue ID is required")
	}
	roots, err := a.Index.Roots(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range roots {
		if r == id {
			return change.ID(r), nil
		}
		if strings.HasPrefix(r, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return change.ID(matches[0]), nil
	case 0:
		return "", fmt.Errorf("issue %s: %w", id, changestore.ErrNotFound)
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("issue id %q is ambiguous: matches %s and %s", id, matches[0][:12], matches[1][:12])
	}
}

// PrintJSON writes v to stdout as indented JSON.
func (a *App) PrintJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SuccessColor returns the string wrapped in green ANSI codes if stdout
// is a terminal, otherwise returns the string unchanged.
func (a *App) SuccessColor(s string) string {
	if f, ok := a.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

// WarnColor returns the string wrapped in orange ANSI codes if stdout is
// a terminal, otherwise returns the string unchanged.
func (a *App) WarnColor(s string) string {
	if f, ok := a.Out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[38;5;214m" + s + "\033[0m"
	}
	return s
}
