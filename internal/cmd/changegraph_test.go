package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestChangeGraphDot(t *testing.T) {
	app := setupTestApp(t)
	id := createIssue(t, app, "graph me")
	commentID := addComment(t, app, id, "a node")

	out := app.Out.(*bytes.Buffer)
	cmd := newChangeGraphCmd(NewTestProvider(app))
	cmd.SetArgs([]string{id})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("changegraph failed: %v", err)
	}
	got := out.String()

	if !strings.HasPrefix(got, "digraph changegraph {") {
		t.Errorf("not dot output:\n%s", got)
	}
	if !strings.Contains(got, id[:8]) || !strings.Contains(got, commentID[:8]) {
		t.Errorf("missing node labels:\n%s", got)
	}
	if !strings.Contains(got, "\""+commentID[:8]+"\" -> \""+id[:8]+"\";") {
		t.Errorf("missing parent edge:\n%s", got)
	}
}

func TestChangeGraphUnknownIssue(t *testing.T) {
	app := setupTestApp(t)

	cmd := newChangeGraphCmd(NewTestProvider(app))
	cmd.SetArgs([]string{"deadbeef"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown issue")
	}
}
