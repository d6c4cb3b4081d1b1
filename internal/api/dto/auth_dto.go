package dto

import (
	"time"

	"github.com/spec-kit/college-marketplace/internal/service"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for password sign-in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FederatedLoginRequest carries an ID token from the external provider.
type FederatedLoginRequest struct {
	IDToken string `json:"id_token"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest names the refresh token to discard. The access token comes
// from the Authorization header.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// IntrospectRequest names the access token to diagnose.
type IntrospectRequest struct {
	Token string `json:"token"`
}

// SessionResponse is returned by every endpoint that opens or rotates a session.
type SessionResponse struct {
	TokenType        string       `json:"token_type"`
	AccessToken      string       `json:"access_token"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}

// IntrospectionResponse reports whether a token would authenticate.
type IntrospectionResponse struct {
	Valid     bool       `json:"valid"`
	Subject   string     `json:"subject,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// NewSessionResponse renders a session.
func NewSessionResponse(s *service.Session) SessionResponse {
	return SessionResponse{
		TokenType:        "Bearer",
		AccessToken:      s.AccessToken,
		AccessExpiresAt:  s.AccessExpiresAt,
		RefreshToken:     s.RefreshToken,
		RefreshExpiresAt: s.RefreshExpiresAt,
		User:             NewUserResponse(s.Principal),
	}
}

// NewIntrospectionResponse renders an introspection result.
func NewIntrospectionResponse(in *service.Introspection) IntrospectionResponse {
	return IntrospectionResponse{
		Valid:     in.Valid,
		Subject:   in.Subject,
		Role:      string(in.Role),
		ExpiresAt: in.ExpiresAt,
		Reason:    in.Reason,
	}
}
