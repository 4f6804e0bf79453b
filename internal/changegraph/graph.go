// Package changegraph implements the DAG view over a store's resolved
// changes: assembly rooted at the unique zero-parent change, union merge,
// and the deterministic topological linearization the reducer folds.
package changegraph

import (
	"errors"
	"fmt"
	"sort"

	"cob/internal/change"
)

var (
	// ErrNoRoot means the change set has no zero-parent change.
	ErrNoRoot = errors.New("change graph has no root")

	// ErrMultipleRoots means the change set has more than one zero-parent
	// change; two issues' histories were mixed together.
	ErrMultipleRoots = errors.New("change graph has multiple roots")

	// ErrCycle means the change set contains a cycle. Content addressing
	// makes cycles unconstructible, so this only fires on a corrupted or
	// malicious store.
	ErrCycle = errors.New("change graph contains a cycle")

	// ErrMissingParent means a change references a parent absent from the
	// set: a torn snapshot, which a correct store never produces.
	ErrMissingParent = errors.New("change references a missing parent")
)

// Graph is an immutable DAG over a snapshot of resolved changes. Edges
// run from each change to its parents. Build one with Assemble; it never
// mutates the underlying store.
type Graph struct {
	root  *change.Change
	nodes map[change.ID]*change.Change

	// children is the reverse edge set, in no particular order.
	children map[change.ID][]change.ID
}

// Assemble builds the graph over a resolved snapshot. The set must be
// closed under ancestry and contain exactly one zero-parent change.
// Cycles are rejected even though content addressing makes them
// unconstructible for honestly produced changes.
func Assemble(resolved []*change.Change) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[change.ID]*change.Change, len(resolved)),
		children: make(map[change.ID][]change.ID),
	}

	for _, ch := range resolved {
		if ch == nil {
			continue
		}
		g.nodes[ch.ID] = ch
	}
	for _, ch := range g.nodes {
		if ch.IsRoot() {
			if g.root != nil {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleRoots, g.root.ID.Short(), ch.ID.Short())
			}
			g.root = ch
		}
		for _, p := range ch.Parents {
			if _, ok := g.nodes[p]; !ok {
				return nil, fmt.Errorf("%w: change %s references %s", ErrMissingParent, ch.ID.Short(), p.Short())
			}
			g.children[p] = append(g.children[p], ch.ID)
		}
	}
	if g.root == nil {
		return nil, ErrNoRoot
	}

	// Kahn's over the full set doubles as cycle detection: a cycle keeps
	// its members' in-degrees above zero forever.
	if len(g.TopologicalOrder()) != len(g.nodes) {
		return nil, ErrCycle
	}
	return g, nil
}

// Merge computes the union of two graphs and reassembles. The result is
// independent of argument order and of prior merge history: merge is
// commutative, associative, and idempotent, which is what lets
// disconnected replicas converge.
func Merge(a, b *Graph) (*Graph, error) {
	union := make([]*change.Change, 0, len(a.nodes)+len(b.nodes))
	for _, ch := range a.nodes {
		union = append(union, ch)
	}
	for id, ch := range b.nodes {
		if _, ok := a.nodes[id]; !ok {
			union = append(union, ch)
		}
	}
	return Assemble(union)
}

// Root returns the graph's unique zero-parent change.
func (g *Graph) Root() *change.Change { return g.root }

// Len returns the number of changes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Get returns the change for id, or nil if absent.
func (g *Graph) Get(id change.ID) *change.Change { return g.nodes[id] }

// Changes returns every change in the graph, sorted by id.
func (g *Graph) Changes() []*change.Change {
	out := make([]*change.Change, 0, len(g.nodes))
	for _, ch := range g.nodes {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tips returns the changes with no children, sorted by id. New changes
// are parented on the current tips.
func (g *Graph) Tips() []change.ID {
	var tips []change.ID
	for id := range g.nodes {
		if len(g.children[id]) == 0 {
			tips = append(tips, id)
		}
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i] < tips[j] })
	return tips
}

// TopologicalOrder linearizes the graph: every change appears exactly
// once, after all of its parents. When several changes are eligible at
// once (concurrent edits with no ancestor relation) the tie is broken by
// ascending lexicographic id. The tie-break is content-derived, not
// timing-derived, so every replica linearizes an identical set of changes
// identically, which is what makes the fold order-independent.
func (g *Graph) TopologicalOrder() []*change.Change {
	inDegree := make(map[change.ID]int, len(g.nodes))
	for id, ch := range g.nodes {
		inDegree[id] = len(ch.Parents)
	}

	// ready holds eligible ids sorted ascending; the smallest is popped
	// each round.
	var ready []change.ID
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	result := make([]*change.Change, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, g.nodes[id])

		eligible := false
		for _, childID := range g.children[id] {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				ready = append(ready, childID)
				eligible = true
			}
		}
		if eligible {
			sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		}
	}
	return result
}
