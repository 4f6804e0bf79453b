package change

import "fmt"

// Issue status values carried by SetStatus payloads. The projected state
// in the issue package mirrors these.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Payload is the operation a change applies to an issue. It is a closed
// tagged union: the projector folds payloads with a single exhaustive type
// switch, so adding a kind here means updating the fold rules too.
type Payload interface {
	// Type returns the payload's wire tag.
	Type() string

	validate() error
}

// CreateIssue seeds a new issue. It is the payload of the unique root
// change of every change graph.
type CreateIssue struct {
	Title       string
	Description string
}

// SetTitle replaces the issue title.
type SetTitle struct {
	Title string
}

// SetStatus opens or closes the issue.
type SetStatus struct {
	Status string
}

// AddComment appends a comment. ReplyTo optionally names the change ID of
// an earlier comment this one replies to.
type AddComment struct {
	Body    string
	ReplyTo ID
}

// Wire tags for the payload union. These appear in the canonical encoding,
// so they are part of every change's identity and must never change.
const (
	TypeCreateIssue = "create_issue"
	TypeSetTitle    = "set_title"
	TypeSetStatus   = "set_status"
	TypeAddComment  = "add_comment"
)

func (p *CreateIssue) Type() string { return TypeCreateIssue }
func (p *SetTitle) Type() string    { return TypeSetTitle }
func (p *SetStatus) Type() string   { return TypeSetStatus }
func (p *AddComment) Type() string  { return TypeAddComment }

func (p *CreateIssue) validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: create_issue requires a title", ErrValidation)
	}
	return nil
}

func (p *SetTitle) validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: set_title requires a title", ErrValidation)
	}
	return nil
}

func (p *SetStatus) validate() error {
	if p.Status != StatusOpen && p.Status != StatusClosed {
		return fmt.Errorf("%w: set_status status must be %q or %q, got %q",
			ErrValidation, StatusOpen, StatusClosed, p.Status)
	}
	return nil
}

func (p *AddComment) validate() error {
	if p.Body == "" {
		return fmt.Errorf("%w: add_comment requires a body", ErrValidation)
	}
	return nil
}
