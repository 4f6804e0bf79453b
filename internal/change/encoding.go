package change

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wirePayload is the serialized form of the payload union: a type tag plus
// the superset of payload fields, empties omitted.
type wirePayload struct {
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
	ReplyTo     ID     `json:"reply_to,omitempty"`
}

// canonicalChange is the portion of a change covered by its ID and
// signature. Parents must already be sorted ascending; together with Go's
// fixed struct field order this makes the encoding a pure function of the
// change's content.
type canonicalChange struct {
	Parents []ID        `json:"parents"`
	Author  string      `json:"author"`
	Payload wirePayload `json:"payload"`
}

// wireChange is the full stored/transmitted form: the canonical fields
// plus the id and signature envelope.
type wireChange struct {
	ID        ID          `json:"id"`
	Parents   []ID        `json:"parents"`
	Author    string      `json:"author"`
	Signature string      `json:"signature"`
	Payload   wirePayload `json:"payload"`
}

func payloadToWire(p Payload) wirePayload {
	switch p := p.(type) {
	case *CreateIssue:
		return wirePayload{Type: TypeCreateIssue, Title: p.Title, Description: p.Description}
	case *SetTitle:
		return wirePayload{Type: TypeSetTitle, Title: p.Title}
	case *SetStatus:
		return wirePayload{Type: TypeSetStatus, Status: p.Status}
	case *AddComment:
		return wirePayload{Type: TypeAddComment, Body: p.Body, ReplyTo: p.ReplyTo}
	default:
		// Unreachable for the closed union; canonicalEncode rejects it.
		return wirePayload{}
	}
}

func payloadFromWire(w wirePayload) (Payload, error) {
	switch w.Type {
	case TypeCreateIssue:
		return &CreateIssue{Title: w.Title, Description: w.Description}, nil
	case TypeSetTitle:
		return &SetTitle{Title: w.Title}, nil
	case TypeSetStatus:
		return &SetStatus{Status: w.Status}, nil
	case TypeAddComment:
		return &AddComment{Body: w.Body, ReplyTo: w.ReplyTo}, nil
	default:
		return nil, fmt.Errorf("%w: unknown payload type %q", ErrValidation, w.Type)
	}
}

// marshalNoEscape is json.Marshal without HTML escaping, so the bytes a
// change is hashed and signed over carry <, > and & literally.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// canonicalEncode produces the deterministic byte serialization that IDs
// and signatures are computed over: {parents (sorted), author, payload}.
func canonicalEncode(parents []ID, author string, payload Payload) ([]byte, error) {
	w := payloadToWire(payload)
	if w.Type == "" {
		return nil, fmt.Errorf("%w: unsupported payload %T", ErrValidation, payload)
	}
	if parents == nil {
		parents = []ID{}
	}
	data, err := marshalNoEscape(canonicalChange{Parents: parents, Author: author, Payload: w})
	if err != nil {
		return nil, fmt.Errorf("encoding change: %w", err)
	}
	return data, nil
}

// Encode serializes a change to its wire form. Encoding the result of
// Decode reproduces the bytes Encode originally produced.
func (c *Change) Encode() ([]byte, error) {
	w := payloadToWire(c.Payload)
	if w.Type == "" {
		return nil, fmt.Errorf("%w: unsupported payload %T", ErrValidation, c.Payload)
	}
	parents := c.Parents
	if parents == nil {
		parents = []ID{}
	}
	data, err := marshalNoEscape(wireChange{
		ID:        c.ID,
		Parents:   parents,
		Author:    c.Author,
		Signature: c.Signature,
		Payload:   w,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding change %s: %w", c.ID.Short(), err)
	}
	return data, nil
}

// Decode parses a change from its wire form. It checks structure only;
// callers must Verify before trusting the result.
func Decode(data []byte) (*Change, error) {
	var w wireChange
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: undecodable change: %v", ErrValidation, err)
	}
	payload, err := payloadFromWire(w.Payload)
	if err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, fmt.Errorf("%w: change is missing an id", ErrValidation)
	}
	parents := w.Parents
	if parents == nil {
		parents = []ID{}
	}
	return &Change{
		ID:        w.ID,
		Parents:   parents,
		Author:    w.Author,
		Signature: w.Signature,
		Payload:   payload,
	}, nil
}
