package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// TestProviderLifecycle runs init then real commands through the lazy
// provider, exercising config loading, key loading, and the default
// badger engine end to end.
func TestProviderLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".cob")

	initProvider := &AppProvider{CobPath: dir, Out: &bytes.Buffer{}}
	if err := newInitCmd(initProvider).Execute(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	out := &bytes.Buffer{}
	provider := &AppProvider{CobPath: dir, Out: out, Err: &bytes.Buffer{}}
	defer provider.close()

	create := newCreateCmd(provider)
	create.SetArgs([]string{"end to end"})
	if err := create.Execute(); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	id := strings.TrimSpace(out.String())
	if len(id) != 64 {
		t.Fatalf("expected issue id, got %q", id)
	}
	out.Reset()

	get := newGetCmd(provider)
	get.SetArgs([]string{id})
	if err := get.Execute(); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !strings.Contains(out.String(), "end to end") {
		t.Errorf("issue not readable back:\n%s", out.String())
	}
}

func TestProviderFailsWithoutInit(t *testing.T) {
	provider := &AppProvider{CobPath: filepath.Join(t.TempDir(), ".cob")}
	if _, err := provider.Get(); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestProviderGetIsIdempotent(t *testing.T) {
	app := setupTestApp(t)
	provider := NewTestProvider(app)

	a, err := provider.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := provider.Get()
	if a != b {
		t.Error("Get should return the same app")
	}
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	root := newRootCmd(&AppProvider{})
	want := []string{
		"init", "create", "get", "set-title", "close", "reopen",
		"add-comment", "list", "changegraph", "export", "import",
	}
	have := make(map[string]bool)
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
