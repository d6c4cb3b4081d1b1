package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/repository"
)

const refreshTokenBytes = 32

// RefreshStore manages the single live refresh token of each principal.
type RefreshStore struct {
	repo     repository.RefreshTokenRepository
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

// RefreshOption customizes a RefreshStore.
type RefreshOption func(*RefreshStore)

// WithRefreshClock overrides the clock used for expiry.
func WithRefreshClock(now func() time.Time) RefreshOption {
	return func(s *RefreshStore) {
		s.now = now
	}
}

// WithRefreshGenerator overrides how opaque token values are produced.
func WithRefreshGenerator(generate func() (string, error)) RefreshOption {
	return func(s *RefreshStore) {
		s.generate = generate
	}
}

// NewRefreshStore builds a store over the given repository.
func NewRefreshStore(repo repository.RefreshTokenRepository, ttl time.Duration, opts ...RefreshOption) *RefreshStore {
	s := &RefreshStore{repo: repo, ttl: ttl, now: time.Now, generate: randomToken}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueOrRotate gives the principal a fresh refresh token, overwriting any
// existing row for it.
func (s *RefreshStore) IssueOrRotate(ctx context.Context, principalID string) (*domain.RefreshToken, error) {
	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	token, err := s.repo.Upsert(ctx, principalID, value, s.now().Add(s.ttl))
	if err != nil {
		return nil, unavailable("issue refresh token", err)
	}
	return token, nil
}

// Verify returns the row holding value. An expired row is deleted before
// ErrExpired is returned.
func (s *RefreshStore) Verify(ctx context.Context, value string) (*domain.RefreshToken, error) {
	token, err := s.repo.GetByValue(ctx, value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRefreshNotFound
	}
	if err != nil {
		return nil, unavailable("load refresh token", err)
	}
	if token.Expired(s.now()) {
		if err := s.repo.DeleteByValue(ctx, value); err != nil {
			return nil, unavailable("delete expired refresh token", err)
		}
		return nil, ErrExpired
	}
	return token, nil
}

// Rotate replaces value with a new random token if value is still the
// principal's current, unexpired token. Of several concurrent callers with
// the same value exactly one succeeds; the rest get ErrStale.
func (s *RefreshStore) Rotate(ctx context.Context, value string) (*domain.RefreshToken, error) {
	next, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := s.now()
	token, err := s.repo.Replace(ctx, value, next, now.Add(s.ttl), now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, unavailable("rotate refresh token", err)
	}
	return token, nil
}

// Revoke deletes the row holding value. Absent rows are not an error.
func (s *RefreshStore) Revoke(ctx context.Context, value string) error {
	if err := s.repo.DeleteByValue(ctx, value); err != nil {
		return unavailable("revoke refresh token", err)
	}
	return nil
}

// RevokeByPrincipal deletes whatever refresh token the principal holds.
func (s *RefreshStore) RevokeByPrincipal(ctx context.Context, principalID string) error {
	if err := s.repo.DeleteByOwner(ctx, principalID); err != nil {
		return unavailable("revoke principal refresh token", err)
	}
	return nil
}

// PurgeExpired deletes rows that expired without being presented again.
func (s *RefreshStore) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, unavailable("purge refresh tokens", err)
	}
	return n, nil
}

func randomToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
