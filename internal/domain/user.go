package domain

import "time"

// UserStatus represents lifecycle states for a marketplace account.
type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusBanned UserStatus = "BANNED"
)

// Role is the single grant carried by a principal.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role belongs to the closed set of known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	}
	return false
}

// Authority renders the role as a granted authority string.
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// User is the principal record owned by the user-management layer. The
// authentication core only reads it.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanAuthenticate reports whether the account status permits access.
func (u *User) CanAuthenticate() bool {
	return u != nil && u.Status == UserStatusActive
}
