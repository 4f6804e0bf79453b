package kvstore

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// RunContractTests runs the full contract test suite against a KV
// implementation. Each engine should call this with its own factory
// function to ensure consistent behavior across implementations.
func RunContractTests(t *testing.T, factory func(t *testing.T) KV) {
	t.Run("SetGet", func(t *testing.T) { testSetGet(t, factory(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("FailIfExists", func(t *testing.T) { testFailIfExists(t, factory(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory(t)) })
	t.Run("List", func(t *testing.T) { testList(t, factory(t)) })
	t.Run("InvalidKeys", func(t *testing.T) { testInvalidKeys(t, factory(t)) })
}

func testSetGet(t *testing.T, kv KV) {
	ctx := context.Background()
	want := []byte("hello")
	if err := kv.Set(ctx, "k1", want, SetOptions{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := kv.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get = %q, want %q", got, want)
	}
}

func testGetMissing(t *testing.T, kv KV) {
	_, err := kv.Get(context.Background(), "nope")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get missing key: got %v, want ErrKeyNotFound", err)
	}
}

func testOverwrite(t *testing.T, kv KV) {
	ctx := context.Background()
	if err := kv.Set(ctx, "k", []byte("v1"), SetOptions{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set(ctx, "k", []byte("v2"), SetOptions{}); err != nil {
		t.Fatalf("overwrite Set failed: %v", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Get after overwrite = %q, want %q", got, "v2")
	}
}

func testFailIfExists(t *testing.T, kv KV) {
	ctx := context.Background()
	if err := kv.Set(ctx, "k", []byte("v1"), SetOptions{FailIfExists: true}); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	err := kv.Set(ctx, "k", []byte("v2"), SetOptions{FailIfExists: true})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second Set: got %v, want ErrAlreadyExists", err)
	}
	got, err := kv.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("value changed by failed Set: got %q, want %q", got, "v1")
	}
}

func testDelete(t *testing.T, kv KV) {
	ctx := context.Background()
	if err := kv.Set(ctx, "k", []byte("v"), SetOptions{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrKeyNotFound", err)
	}
	if err := kv.Delete(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Delete missing key: got %v, want ErrKeyNotFound", err)
	}
}

func testList(t *testing.T, kv KV) {
	ctx := context.Background()
	keys, err := kv.List(ctx)
	if err != nil {
		t.Fatalf("List on empty store failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List on empty store = %v, want empty", keys)
	}

	for _, k := range []string{"charlie", "alpha", "bravo"} {
		if err := kv.Set(ctx, k, []byte(k), SetOptions{}); err != nil {
			t.Fatalf("Set %q failed: %v", k, err)
		}
	}
	keys, err = kv.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"alpha", "bravo", "charlie"}
	if len(keys) != len(want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func testInvalidKeys(t *testing.T, kv KV) {
	ctx := context.Background()
	for _, k := range []string{"", "a/b", `a\b`} {
		if err := kv.Set(ctx, k, []byte("v"), SetOptions{}); err == nil {
			t.Errorf("Set(%q) succeeded, want error", k)
		}
		if _, err := kv.Get(ctx, k); err == nil {
			t.Errorf("Get(%q) succeeded, want error", k)
		}
	}
}
