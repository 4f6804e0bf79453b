// Package kvstore defines a generic key-value storage interface used as
// the substrate for the content-addressable object store. Two engines
// implement it: an embedded BadgerDB database and a one-file-per-key
// filesystem layout.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when Set is called with FailIfExists
	// and the key already exists.
	ErrAlreadyExists = errors.New("key already exists")
)

// KV defines the interface for key-value persistence. Each store operates
// on a single "table" (a named keyspace under the project directory).
type KV interface {
	// Set stores a value for the given key.
	// If opts.FailIfExists is true and the key already exists, returns
	// ErrAlreadyExists. Otherwise, overwrites the existing value.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Get retrieves the value for the given key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key and its value.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// List returns all keys in the table, sorted ascending.
	List(ctx context.Context) ([]string, error)

	// Close releases the engine's resources.
	Close() error
}

// SetOptions controls Set behavior.
type SetOptions struct {
	// FailIfExists causes Set to return ErrAlreadyExists if the key is
	// already present.
	FailIfExists bool
}

// ValidateKey checks that a key is non-empty and free of path separators,
// which keeps keys usable as filenames in the filesystem engine.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.ContainsAny(key, "/\\") {
		return fmt.Errorf("key %q contains path separator", key)
	}
	return nil
}
