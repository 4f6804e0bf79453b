// Package change implements the immutable unit of history: a signed,
// content-addressed record naming its causal parents and carrying an
// operation payload. A change's ID is the SHA-256 of its canonical
// encoding, so identity and integrity checking coincide.
package change

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// ID is the content address of a change: the lowercase hex SHA-256 of its
// canonical encoding. IDs compare lexicographically, which is the tie-break
// used when linearizing concurrent changes.
type ID string

// Short returns an abbreviated form of the ID for display.
func (id ID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// Change is the immutable unit of history. Construct with New; received
// changes are parsed with Decode and checked with Verify. Fields are
// exported for serialization but must never be mutated after construction.
type Change struct {
	// ID is the SHA-256 hex digest of the canonical encoding of
	// Parents+Author+Payload. It is recomputed on Verify.
	ID ID

	// Parents are the IDs of the causally preceding changes, sorted
	// ascending. Empty for the root CreateIssue change, non-empty for
	// everything else.
	Parents []ID

	// Author identifies the signer. It is a hex-encoded ed25519 public
	// key; the core treats it as an opaque string everywhere except
	// signature verification.
	Author string

	// Signature is the ed25519 signature over the canonical encoding,
	// hex-encoded.
	Signature string

	// Payload is the operation this change applies.
	Payload Payload
}

// IsRoot reports whether this change has no parents.
func (c *Change) IsRoot() bool {
	return len(c.Parents) == 0
}

// Signer produces signatures binding a change to an author identity.
// The identity package provides the file-keystore implementation.
type Signer interface {
	// Author returns the signer's identity string (hex ed25519 public key).
	Author() string

	// Sign signs the given bytes.
	Sign(data []byte) ([]byte, error)
}

// New constructs a signed change from a payload and a set of parent IDs.
// Parents are deduplicated and sorted ascending so the resulting ID is
// independent of the order they were supplied in. Returns ErrValidation
// if the payload is malformed or the parent set does not match the
// payload kind (CreateIssue must be a root, everything else must not be).
func New(signer Signer, payload Payload, parents []ID) (*Change, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: payload is required", ErrValidation)
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	sorted := normalizeParents(parents)
	if err := checkParentShape(payload, sorted); err != nil {
		return nil, err
	}

	author := signer.Author()
	if author == "" {
		return nil, fmt.Errorf("%w: signer has empty author", ErrValidation)
	}

	canonical, err := canonicalEncode(sorted, author, payload)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(canonical)
	if err != nil {
		return nil, fmt.Errorf("signing change: %w", err)
	}

	return &Change{
		ID:        hashContent(canonical),
		Parents:   sorted,
		Author:    author,
		Signature: hex.EncodeToString(sig),
		Payload:   payload,
	}, nil
}

// Verify recomputes the change's ID from its content and checks the
// signature against the claimed author key. Returns ErrIntegrity on any
// mismatch and ErrValidation if the payload or parent shape is malformed.
// Verification is pure computation; it never touches storage.
func (c *Change) Verify() error {
	if c.Payload == nil {
		return fmt.Errorf("%w: change %s has no payload", ErrValidation, c.ID.Short())
	}
	if err := c.Payload.validate(); err != nil {
		return err
	}
	if err := checkParentShape(c.Payload, c.Parents); err != nil {
		return err
	}
	if !sort.SliceIsSorted(c.Parents, func(i, j int) bool { return c.Parents[i] < c.Parents[j] }) {
		return fmt.Errorf("%w: change %s has unsorted parents", ErrIntegrity, c.ID.Short())
	}

	canonical, err := canonicalEncode(c.Parents, c.Author, c.Payload)
	if err != nil {
		return err
	}
	if got := hashContent(canonical); got != c.ID {
		return fmt.Errorf("%w: change id %s does not match content hash %s", ErrIntegrity, c.ID.Short(), got.Short())
	}

	pub, err := hex.DecodeString(c.Author)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: change %s has malformed author key", ErrIntegrity, c.ID.Short())
	}
	sig, err := hex.DecodeString(c.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: change %s has malformed signature", ErrIntegrity, c.ID.Short())
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), canonical, sig) {
		return fmt.Errorf("%w: change %s signature does not verify", ErrIntegrity, c.ID.Short())
	}
	return nil
}

// normalizeParents returns a sorted, deduplicated, non-nil copy.
func normalizeParents(parents []ID) []ID {
	out := make([]ID, 0, len(parents))
	seen := make(map[ID]bool, len(parents))
	for _, p := range parents {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// checkParentShape enforces that CreateIssue is the only parentless
// payload kind: the root creates the issue, everything else extends it.
func checkParentShape(payload Payload, parents []ID) error {
	_, isCreate := payload.(*CreateIssue)
	if isCreate && len(parents) > 0 {
		return fmt.Errorf("%w: create_issue must be a root change, got %d parents", ErrValidation, len(parents))
	}
	if !isCreate && len(parents) == 0 {
		return fmt.Errorf("%w: %s requires at least one parent", ErrValidation, payload.Type())
	}
	return nil
}

func hashContent(canonical []byte) ID {
	sum := sha256.Sum256(canonical)
	return ID(hex.EncodeToString(sum[:]))
}
