package auth

// PrincipalKind tells account sessions and admin sessions apart
type PrincipalKind string

const (
	PrincipalAccount PrincipalKind = "account"
	PrincipalAdmin   PrincipalKind = "admin"
)

// Principal is the verified identity behind a request. It is produced once when the
// session token is verified and handed to handlers explicitly.
type Principal struct {
	Kind  PrincipalKind
	ID    uint
	Email string
}

// IsAdmin reports whether the principal is an admin session
func (p Principal) IsAdmin() bool {
	return p.Kind == PrincipalAdmin
}

// IsAccount reports whether the principal is a signed in account
func (p Principal) IsAccount() bool {
	return p.Kind == PrincipalAccount
}
