package domain

import "time"

// RefreshToken is the persisted long-lived credential. At most one row exists
// per owner; issuing a new one overwrites Token and ExpiresAt in place.
type RefreshToken struct {
	ID        string
	OwnerID   string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Identity is the authenticated caller established for a single request. The
// zero value is the anonymous identity.
type Identity struct {
	PrincipalID string
	Subject     string
	Role        Role
	Authorities []string
}

// Anonymous is the identity of a request that carried no usable credential.
var Anonymous = Identity{}

// IsAuthenticated reports whether the identity carries a subject.
func (i Identity) IsAuthenticated() bool {
	return i.Subject != ""
}

// HasRole reports whether the identity holds one of the given roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// NewIdentity builds the identity for an authenticated principal.
func NewIdentity(user *User) Identity {
	return Identity{
		PrincipalID: user.ID,
		Subject:     user.Email,
		Role:        user.Role,
		Authorities: []string{user.Role.Authority()},
	}
}
