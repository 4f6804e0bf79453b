package change

import "errors"

var (
	// ErrValidation marks a malformed change caught at construction:
	// a required payload field is empty, a root change has parents, or a
	// non-root change has none. Such changes are rejected and never stored.
	ErrValidation = errors.New("invalid change")

	// ErrIntegrity marks a change whose content hash or signature does not
	// check out. Poisoned input from a peer: rejected, never stored, and
	// never allowed to affect other changes.
	ErrIntegrity = errors.New("change failed integrity check")

	// ErrAuthorization marks a change whose author is not permitted to
	// write to this project.
	ErrAuthorization = errors.New("author not authorized")
)
