package identity

// Authorizer decides whether an author may write changes to this project.
// The change store consults it on every insert.
type Authorizer interface {
	Authorized(author string) bool
}

// AllowAll admits every author. Used when the project has no allowlist.
type AllowAll struct{}

func (AllowAll) Authorized(string) bool { return true }

// Allowlist admits only the listed authors (hex public keys). An empty
// allowlist admits nobody; use AllowAll for an open project.
type Allowlist map[string]bool

// NewAllowlist builds an Allowlist from a slice of author strings.
func NewAllowlist(authors []string) Allowlist {
	al := make(Allowlist, len(authors))
	for _, a := range authors {
		al[a] = true
	}
	return al
}

func (al Allowlist) Authorized(author string) bool { return al[author] }
