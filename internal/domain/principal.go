package domain

// Principal is the caller identity derived from request credentials.
// The zero value is anonymous; an authenticated principal carries the
// account id from the verified JWT subject claim.
type Principal struct {
	ID            string
	Authenticated bool
}

// Anonymous is the principal for requests carrying no credentials.
var Anonymous = Principal{}

// NewPrincipal returns an authenticated principal for the given account id.
func NewPrincipal(id string) Principal {
	return Principal{ID: id, Authenticated: true}
}

// IsAnonymous reports whether the principal carries no verified identity.
func (p Principal) IsAnonymous() bool {
	return !p.Authenticated
}

// Owns reports whether the principal is the authenticated owner of a
// resource recorded against ownerID. Anonymous principals own nothing.
func (p Principal) Owns(ownerID string) bool {
	return p.Authenticated && p.ID != "" && p.ID == ownerID
}
