package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/college-marketplace/internal/domain"
)

// TokenManager issues and verifies HS256 access tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithTokenClock overrides the clock used for issuing and expiry checks.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes the access token payload. The registered subject is the
// principal's email.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TTL returns the access token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue signs an access token for the principal and returns it with its
// expiry. tokenID becomes the jti claim and keeps tokens issued within the
// same second distinct; equal inputs still produce equal tokens. Times are
// truncated to whole seconds so the returned expiry is exactly the one signed.
func (tm *TokenManager) Issue(user *domain.User, tokenID string) (string, time.Time, error) {
	now := tm.now().Truncate(time.Second)
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks signature and expiry and returns the claims. A token is
// still valid at the instant of its expiry and expired strictly after it.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims, err := tm.Inspect(tokenStr)
	if err != nil {
		return nil, err
	}
	if tm.now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpired
	}
	return claims, nil
}

// ExtractSubject returns the subject of a correctly signed token even if it
// has expired. It grants nothing; callers must still Verify.
func (tm *TokenManager) ExtractSubject(tokenStr string) (string, error) {
	claims, err := tm.Inspect(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Inspect returns the claims of a correctly signed token without checking
// expiry.
func (tm *TokenManager) Inspect(tokenStr string) (*Claims, error) {
	claims, err := tm.parse(tokenStr, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (tm *TokenManager) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrMalformed
	}
}
