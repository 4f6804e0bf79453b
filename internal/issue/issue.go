// Package issue defines the projected issue state: the read-time value
// the reducer folds a change graph into. An Issue is derived, never
// persisted; each projection produces a fresh one.
package issue

import "cob/internal/change"

// Status is the projected state of an issue.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Issue is the state observed after folding every resolved change.
type Issue struct {
	// ID is the root change's id; it identifies the issue everywhere.
	ID          change.ID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author"`
	Status      Status    `json:"status"`

	// Comments appear in the deterministic fold order.
	Comments []Comment `json:"comments,omitempty"`

	// Annotations record semantic oddities found during projection.
	// History is never silently discarded; it is flagged instead.
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Comment is a projected comment. Its ID is the id of the AddComment
// change that produced it.
type Comment struct {
	ID      change.ID `json:"id"`
	Author  string    `json:"author"`
	Body    string    `json:"body"`
	ReplyTo change.ID `json:"reply_to,omitempty"`
	Order   int       `json:"order"`

	// OrphanReply is set when ReplyTo names a comment that had not been
	// folded in at this point. The comment is kept regardless.
	OrphanReply bool `json:"orphan_reply,omitempty"`
}

// AnnotationKind classifies a projection-time note.
type AnnotationKind string

const (
	// OrphanReply: a comment replied to an unknown comment id.
	OrphanReply AnnotationKind = "orphan_reply"

	// MalformedChange: a change could not be folded (e.g. a non-root
	// CreateIssue) and was skipped.
	MalformedChange AnnotationKind = "malformed_change"
)

// Annotation flags a change the reducer could not fold cleanly. It is
// advisory: projection always completes.
type Annotation struct {
	Kind     AnnotationKind `json:"kind"`
	ChangeID change.ID      `json:"change_id"`
	Detail   string         `json:"detail,omitempty"`
}
