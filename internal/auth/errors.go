package auth

import (
	"errors"
	"fmt"
)

// Access token verification failures.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrRevoked          = errors.New("token revoked")
)

// Refresh token and session failures.
var (
	ErrRefreshNotFound  = errors.New("refresh token not found")
	ErrStale            = errors.New("refresh token already rotated")
	ErrInvalidOrExpired = errors.New("refresh token invalid or expired")
)

// Principal failures.
var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrPrincipalInactive = errors.New("principal inactive")
)

// ErrAuthUnavailable marks infrastructure failures (storage, registry,
// deadlines) so callers do not mistake them for rejected credentials.
var ErrAuthUnavailable = errors.New("authentication unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrAuthUnavailable, err)
}
