// Package objectstore implements the content-addressable store the change
// core persists through: opaque bytes addressed by the SHA-256 of their
// content, plus the index mapping each issue root to its known changes.
package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"cob/internal/kvstore"
)

// ErrNotFound is returned when no object exists for an id.
var ErrNotFound = errors.New("object not found")

// Hash computes the content address of a blob: lowercase hex SHA-256.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CAS is a content-addressable blob store over a KV table. Callers supply
// the id with Put; ids derived from content make writes idempotent and
// let Get double as an integrity check at higher layers.
type CAS struct {
	kv kvstore.KV
}

// NewCAS creates a content-addressable store over the given KV table.
func NewCAS(kv kvstore.KV) *CAS {
	return &CAS{kv: kv}
}

// Put stores data under id. Re-putting an existing id is a no-op: content
// addressing guarantees the bytes are the same.
func (c *CAS) Put(ctx context.Context, id string, data []byte) error {
	err := c.kv.Set(ctx, id, data, kvstore.SetOptions{FailIfExists: true})
	if errors.Is(err, kvstore.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storing object %s: %w", id, err)
	}
	return nil
}

// Get retrieves the bytes stored under id. Returns ErrNotFound if absent.
func (c *CAS) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := c.kv.Get(ctx, id)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, fmt.Errorf("object %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading object %s: %w", id, err)
	}
	return data, nil
}
