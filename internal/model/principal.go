package model

// Principal is the identity making a request as established by the
// authentication layer.  The zero value is the anonymous principal.
type Principal struct {
	UserID        uint64
	IsAdmin       bool
	Authenticated bool
}

// Anonymous is the principal of requests without credentials.
var Anonymous = Principal{}

// NewPrincipal returns an authenticated principal for the given user.
func NewPrincipal(id uint64, isAdmin bool) Principal {
	return Principal{UserID: id, IsAdmin: isAdmin, Authenticated: true}
}

// IsAnonymous reports whether no user is attached.
func (p Principal) IsAnonymous() bool { return !p.Authenticated }
