package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cob/internal/kvstore"
)

// Index records which changes belong to which issue. Keys are issue root
// change ids; values are the ids of every change known for that issue,
// in arrival order. The set semantics of the change graph make the order
// irrelevant for correctness; it only has to be complete.
type Index struct {
	kv kvstore.KV
}

// NewIndex creates an issue index over the given KV table.
func NewIndex(kv kvstore.KV) *Index {
	return &Index{kv: kv}
}

// Add records changeID as part of the issue rooted at rootID. Adding an
// id twice is a no-op. Callers serialize Add per issue; the change store's
// insert lock covers this.
func (ix *Index) Add(ctx context.Context, rootID, changeID string) error {
	ids, err := ix.Changes(ctx, rootID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == changeID {
			return nil
		}
	}
	ids = append(ids, changeID)
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding index for %s: %w", rootID, err)
	}
	if err := ix.kv.Set(ctx, rootID, data, kvstore.SetOptions{}); err != nil {
		return fmt.Errorf("writing index for %s: %w", rootID, err)
	}
	return nil
}

// Changes returns the ids of every change recorded for the issue rooted
// at rootID. An unknown root yields an empty list, not an error: a replica
// may learn of a root before holding any of its changes.
func (ix *Index) Changes(ctx context.Context, rootID string) ([]string, error) {
	data, err := ix.kv.Get(ctx, rootID)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index for %s: %w", rootID, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decoding index for %s: %w", rootID, err)
	}
	return ids, nil
}

// Roots lists every known issue root id, sorted ascending.
func (ix *Index) Roots(ctx context.Context) ([]string, error) {
	roots, err := ix.kv.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing issue roots: %w", err)
	}
	return roots, nil
}
