package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestListEmpty(t *testing.T) {
	app := setupTestApp(t)
	out := app.Out.(*bytes.Buffer)

	cmd := newListCmd(NewTestProvider(app))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No issues found") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestListIssues(t *testing.T) {
	app := setupTestApp(t)
	idA := createIssue(t, app, "issue alpha")
	idB := createIssue(t, app, "issue beta")

	closeCmd := newCloseCmd(NewTestProvider(app))
	closeCmd.SetArgs([]string{idB})
	if err := closeCmd.Execute(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	out := app.Out.(*bytes.Buffer)
	out.Reset()
	cmd := newListCmd(NewTestProvider(app))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	got := out.String()

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d:\n%s", len(lines), got)
	}
	for _, want := range []string{idA[:12], "issue alpha", "open", idB[:12], "issue beta", "closed"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in output:\n%s", want, got)
		}
	}
}

func TestListJSONOutput(t *testing.T) {
	app := setupTestApp(t)
	app.JSON = true
	id := createIssue(t, app, "structured list")
	out := app.Out.(*bytes.Buffer)
	out.Reset()

	cmd := newListCmd(NewTestProvider(app))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var entries []listEntry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != id || entries[0].Title != "structured list" || entries[0].Status != "open" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestListJSONEmptyIsArray(t *testing.T) {
	app := setupTestApp(t)
	app.JSON = true
	out := app.Out.(*bytes.Buffer)

	cmd := newListCmd(NewTestProvider(app))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %q", got)
	}
}
