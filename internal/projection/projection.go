// Package projection implements the reducer: the deterministic fold that
// turns a change graph into the issue state every replica agrees on.
// Projection is a pure function of the resolved change set: the same
// graph always folds to a byte-identical issue, and a merged graph folds
// the same no matter which replica merged or in what order changes
// arrived.
package projection

import (
	"fmt"

	"cob/internal/change"
	"cob/internal/changegraph"
	"cob/internal/issue"
)

// Project folds the graph's deterministic topological order into an
// Issue. Field edits resolve last-write-wins under that order, comments
// append in it, and semantic oddities (orphan replies, stray CreateIssue
// payloads) become annotations rather than failures: one bad change must
// not deny a view of the issue. The graph is never mutated.
func Project(g *changegraph.Graph) (*issue.Issue, error) {
	if g == nil || g.Root() == nil {
		return nil, changegraph.ErrNoRoot
	}

	out := &issue.Issue{
		ID:     g.Root().ID,
		Status: issue.StatusOpen,
	}

	// Comment ids folded in so far, for reply validation.
	seenComments := make(map[change.ID]bool)

	for i, ch := range g.TopologicalOrder() {
		switch p := ch.Payload.(type) {
		case *change.CreateIssue:
			if i != 0 {
				// Assembly guarantees a unique root, so any other
				// CreateIssue is junk history. Skip it, keep going.
				out.Annotations = append(out.Annotations, issue.Annotation{
					Kind:     issue.MalformedChange,
					ChangeID: ch.ID,
					Detail:   "create_issue outside the root change",
				})
				continue
			}
			out.Title = p.Title
			out.Description = p.Description
			out.Author = ch.Author

		case *change.SetTitle:
			out.Title = p.Title

		case *change.SetStatus:
			out.Status = issue.Status(p.Status)

		case *change.AddComment:
			c := issue.Comment{
				ID:      ch.ID,
				Author:  ch.Author,
				Body:    p.Body,
				ReplyTo: p.ReplyTo,
				Order:   len(out.Comments),
			}
			if p.ReplyTo != "" && !seenComments[p.ReplyTo] {
				c.OrphanReply = true
				out.Annotations = append(out.Annotations, issue.Annotation{
					Kind:     issue.OrphanReply,
					ChangeID: ch.ID,
					Detail:   fmt.Sprintf("reply to unknown comment %s", p.ReplyTo.Short()),
				})
			}
			out.Comments = append(out.Comments, c)
			seenComments[ch.ID] = true

		default:
			// Decode rejects unknown payload tags, so this is a
			// programming error in the payload union, not peer input.
			out.Annotations = append(out.Annotations, issue.Annotation{
				Kind:     issue.MalformedChange,
				ChangeID: ch.ID,
				Detail:   fmt.Sprintf("unfoldable payload %q", ch.Payload.Type()),
			})
		}
	}
	return out, nil
}
