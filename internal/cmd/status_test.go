package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func issueStatus(t *testing.T, app *App, id string) string {
	t.Helper()
	out := app.Out.(*bytes.Buffer)
	out.Reset()

	cmd := newGetCmd(NewTestProvider(app))
	cmd.SetArgs([]string{id})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "Status:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "Status:"))
		}
	}
	t.Fatalf("no status line in output:\n%s", out.String())
	return ""
}

func TestCloseAndReopen(t *testing.T) {
	app := setupTestApp(t)
	id := createIssue(t, app, "lifecycle")

	if got := issueStatus(t, app, id); got != "open" {
		t.Fatalf("new issue should be open, got %q", got)
	}

	closeCmd := newCloseCmd(NewTestProvider(app))
	closeCmd.SetArgs([]string{id})
	if err := closeCmd.Execute(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := issueStatus(t, app, id); got != "closed" {
		t.Fatalf("expected closed, got %q", got)
	}

	reopenCmd := newReopenCmd(NewTestProvider(app))
	reopenCmd.SetArgs([]string{id})
	if err := reopenCmd.Execute(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := issueStatus(t, app, id); got != "open" {
		t.Fatalf("expected open after reopen, got %q", got)
	}
}

func TestCloseIsIdempotentInEffect(t *testing.T) {
	// Closing twice appends two changes; the projection still reads closed.
	app := setupTestApp(t)
	id := createIssue(t, app, "double close")

	for i := 0; i < 2; i++ {
		cmd := newCloseCmd(NewTestProvider(app))
		cmd.SetArgs([]string{id})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("close %d failed: %v", i, err)
		}
	}
	if got := issueStatus(t, app, id); got != "closed" {
		t.Fatalf("expected closed, got %q", got)
	}
}
