// Package filesystem implements kvstore.KV using the local filesystem.
// Each table is a directory under the project dir; each key is a file
// within it, written atomically via a temp file and rename.
package filesystem

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cob/internal/kvstore"
)

// fileExt marks files owned by the store, so stray temp files and other
// droppings never show up as keys.
const fileExt = ".blob"

// Store implements kvstore.KV with one file per key.
type Store struct {
	dir string // absolute path to the table directory
}

// New creates a filesystem KV store for the given table under root,
// creating the directory if needed.
func New(root, table string) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	dir := filepath.Join(root, table)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating table dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Set stores a value for the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte, opts kvstore.SetOptions) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}
	path := s.keyPath(key)
	if opts.FailIfExists {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("key %q: %w", key, kvstore.ErrAlreadyExists)
		}
	}
	return atomicWrite(path, value)
}

// Get retrieves the value for the given key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := kvstore.ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key %q: %w", key, kvstore.ErrKeyNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Delete removes a key and its value.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := kvstore.ValidateKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.keyPath(key)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("key %q: %w", key, kvstore.ErrKeyNotFound)
		}
		return err
	}
	return nil
}

// List returns all keys in the table, sorted ascending.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; the filesystem engine holds no resources.
func (s *Store) Close() error { return nil }

func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// atomicWrite writes data to a file atomically via a temporary file and rename.
func atomicWrite(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("generating random suffix: %w", err)
	}
	tmp := path + ".tmp." + hex.EncodeToString(randBytes)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best effort cleanup
		return err
	}
	return nil
}
