package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetTitle(t *testing.T) {
	app := setupTestApp(t)
	id := createIssue(t, app, "old title")
	out := app.Out.(*bytes.Buffer)

	cmd := newSetTitleCmd(NewTestProvider(app))
	cmd.SetArgs([]string{id, "new title"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("set-title failed: %v", err)
	}
	out.Reset()

	get := newGetCmd(NewTestProvider(app))
	get.SetArgs([]string{id})
	if err := get.Execute(); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "new title") {
		t.Errorf("title not updated:\n%s", got)
	}
	if strings.Contains(got, "old title") {
		t.Errorf("old title still visible:\n%s", got)
	}
}

func TestSetTitleRejectsEmpty(t *testing.T) {
	app := setupTestApp(t)
	id := createIssue(t, app, "keep me")

	cmd := newSetTitleCmd(NewTestProvider(app))
	cmd.SetArgs([]string{id, ""})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestSetTitleUnknownIssue(t *testing.T) {
	app := setupTestApp(t)

	cmd := newSetTitleCmd(NewTestProvider(app))
	cmd.SetArgs([]string{"deadbeef", "whatever"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown issue")
	}
}
