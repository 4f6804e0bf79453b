// Package changestore implements the local holding area for changes:
// an append-only set indexed by content hash, partitioned into resolved
// changes (every ancestor present back to the root) and pending changes
// (waiting on missing ancestors). Inserts are verified, idempotent, and
// atomic; a newly arrived ancestor cascades promotions to everything
// that was waiting on it.
package changestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cob/internal/change"
	"cob/internal/identity"
)

// ErrNotFound is returned by Get for an unknown change id.
var ErrNotFound = errors.New("change not found")

// Outcome reports what an Insert did.
type Outcome int

const (
	// OutcomeNone is the zero value, returned alongside an error.
	OutcomeNone Outcome = iota

	// Inserted: the change was stored and is resolved.
	Inserted

	// AlreadyPresent: the change was already stored; the insert was a
	// no-op. Not an error.
	AlreadyPresent

	// Pending: the change was stored but at least one ancestor is
	// missing; it will resolve when its last missing ancestor arrives.
	Pending
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyPresent:
		return "already-present"
	case Pending:
		return "pending"
	default:
		return "none"
	}
}

// Store holds every change known locally for one issue. It is safe for
// concurrent use: inserts appear atomic, and snapshot reads never observe
// a change without its resolved ancestors.
type Store struct {
	mu       sync.RWMutex
	changes  map[change.ID]*change.Change
	resolved map[change.ID]bool

	// waiters maps an unresolved or missing parent id to the stored
	// changes waiting on it. Entries are consumed on promotion, which
	// bounds every cascade by the number of stored changes.
	waiters map[change.ID][]change.ID

	auth    identity.Authorizer
	journal *Journal
}

// New creates an empty store. auth gates which authors may insert; pass
// identity.AllowAll{} for an open project.
func New(auth identity.Authorizer) *Store {
	if auth == nil {
		auth = identity.AllowAll{}
	}
	return &Store{
		changes:  make(map[change.ID]*change.Change),
		resolved: make(map[change.ID]bool),
		waiters:  make(map[change.ID][]change.ID),
		auth:     auth,
	}
}

// SetJournal attaches a persistence journal. Subsequent inserts are
// written through before they become visible.
func (s *Store) SetJournal(j *Journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal = j
}

// Insert adds a verified change to the store. It is idempotent: inserting
// an already-present id is a no-op reporting AlreadyPresent, without
// re-verification. A change whose ancestors are all present is stored
// resolved and may promote pending changes; otherwise it is stored
// pending. Verification and authorization failures leave the store
// untouched.
func (s *Store) Insert(ctx context.Context, ch *change.Change) (Outcome, error) {
	if ch == nil {
		return OutcomeNone, fmt.Errorf("%w: nil change", change.ErrValidation)
	}

	s.mu.RLock()
	_, dup := s.changes[ch.ID]
	s.mu.RUnlock()
	if dup {
		return AlreadyPresent, nil
	}

	// Pure computation, kept outside the lock.
	if err := ch.Verify(); err != nil {
		return OutcomeNone, err
	}
	if !s.auth.Authorized(ch.Author) {
		return OutcomeNone, fmt.Errorf("%w: author %.12s may not write here", change.ErrAuthorization, ch.Author)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.changes[ch.ID]; dup {
		return AlreadyPresent, nil
	}
	if s.journal != nil {
		if err := s.journal.Append(ctx, ch); err != nil {
			return OutcomeNone, fmt.Errorf("persisting change %s: %w", ch.ID.Short(), err)
		}
	}
	s.changes[ch.ID] = ch

	missing := s.unresolvedParents(ch)
	if len(missing) == 0 {
		s.promote(ch.ID)
		return Inserted, nil
	}
	for _, p := range missing {
		s.waiters[p] = append(s.waiters[p], ch.ID)
	}
	return Pending, nil
}

// Get returns the stored change for id, resolved or pending.
func (s *Store) Get(id change.ID) (*change.Change, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.changes[id]
	if !ok {
		return nil, fmt.Errorf("change %s: %w", id.Short(), ErrNotFound)
	}
	return ch, nil
}

// Len returns the total number of stored changes, resolved and pending.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.changes)
}

// PendingCount returns how many stored changes are awaiting ancestors.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.changes) - len(s.resolved)
}

// PendingWants returns the ids of ancestors referenced by stored changes
// but not present at all, sorted ascending. Replication uses this to
// request what is missing.
func (s *Store) PendingWants() []change.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[change.ID]bool)
	var wants []change.ID
	for _, ch := range s.changes {
		for _, p := range ch.Parents {
			if _, present := s.changes[p]; !present && !seen[p] {
				seen[p] = true
				wants = append(wants, p)
			}
		}
	}
	sort.Slice(wants, func(i, j int) bool { return wants[i] < wants[j] })
	return wants
}

// ResolvedRoots returns the resolved zero-parent changes, sorted by id.
// A well-formed store has exactly one; graph assembly rejects the rest.
func (s *Store) ResolvedRoots() []*change.Change {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var roots []*change.Change
	for id := range s.resolved {
		if ch := s.changes[id]; ch.IsRoot() {
			roots = append(roots, ch)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	return roots
}

// Resolved returns a consistent snapshot of every resolved change, sorted
// by id. Changes are immutable, so sharing pointers is safe. The result
// depends only on the set of stored changes, never on arrival order.
func (s *Store) Resolved() []*change.Change {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*change.Change, 0, len(s.resolved))
	for id := range s.resolved {
		out = append(out, s.changes[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// unresolvedParents returns the parents of ch not yet resolved. Callers
// hold the write lock.
func (s *Store) unresolvedParents(ch *change.Change) []change.ID {
	var missing []change.ID
	for _, p := range ch.Parents {
		if !s.resolved[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// promote marks id resolved and cascades to anything waiting on it.
// Promotion re-checks parent presence only; it never re-verifies, so a
// cascade costs at most one pass over the stored changes. Callers hold
// the write lock.
func (s *Store) promote(id change.ID) {
	queue := []change.ID{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if s.resolved[next] {
			continue
		}
		s.resolved[next] = true

		waiting := s.waiters[next]
		delete(s.waiters, next)
		for _, w := range waiting {
			if s.resolved[w] {
				continue
			}
			if len(s.unresolvedParents(s.changes[w])) == 0 {
				queue = append(queue, w)
			}
		}
	}
}
