package changestore

import (
	"context"
	"fmt"

	"cob/internal/change"
	"cob/internal/identity"
	"cob/internal/objectstore"
)

// Journal writes inserted changes through to the content-addressable
// store and records them in the issue index. One journal serves one
// issue; appends happen under the store's insert lock.
type Journal struct {
	cas  *objectstore.CAS
	ix   *objectstore.Index
	root change.ID
}

// NewJournal creates a journal for the issue rooted at root.
func NewJournal(cas *objectstore.CAS, ix *objectstore.Index, root change.ID) *Journal {
	return &Journal{cas: cas, ix: ix, root: root}
}

// Append persists a change's wire bytes under its id and indexes it.
func (j *Journal) Append(ctx context.Context, ch *change.Change) error {
	data, err := ch.Encode()
	if err != nil {
		return err
	}
	if err := j.cas.Put(ctx, string(ch.ID), data); err != nil {
		return err
	}
	return j.ix.Add(ctx, string(j.root), string(ch.ID))
}

// Load rehydrates the store for the issue rooted at root from persisted
// changes, then attaches a journal so new inserts are written through.
// Stored changes were verified on first insert, but they are re-verified
// here: the store on disk is not trusted against tampering. Insertion
// order does not matter; the pending mechanism absorbs any order the
// index yields.
func Load(ctx context.Context, cas *objectstore.CAS, ix *objectstore.Index, root change.ID, auth identity.Authorizer) (*Store, error) {
	ids, err := ix.Changes(ctx, string(root))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("issue %s: %w", root.Short(), ErrNotFound)
	}

	s := New(auth)
	for _, id := range ids {
		data, err := cas.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		ch, err := change.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("stored change %.8s: %w", id, err)
		}
		if _, err := s.Insert(ctx, ch); err != nil {
			return nil, fmt.Errorf("stored change %.8s: %w", id, err)
		}
	}
	s.SetJournal(NewJournal(cas, ix, root))
	return s, nil
}
