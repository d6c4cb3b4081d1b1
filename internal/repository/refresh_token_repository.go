package repository

import (
	"context"
	"time"

	"github.com/spec-kit/college-marketplace/internal/domain"
)

// RefreshTokenRepository persists refresh tokens. The owner column is unique,
// so every write path keeps at most one row per principal.
type RefreshTokenRepository interface {
	// Upsert inserts the owner's row or overwrites its token and expiry.
	Upsert(ctx context.Context, ownerID, token string, expiresAt time.Time) (*domain.RefreshToken, error)
	GetByValue(ctx context.Context, token string) (*domain.RefreshToken, error)
	// Replace swaps oldToken for newToken only if oldToken is still current
	// and not expired at now. Returns ErrNotFound when the swap loses.
	Replace(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) (*domain.RefreshToken, error)
	// DeleteByValue is a no-op when the token does not exist.
	DeleteByValue(ctx context.Context, token string) error
	DeleteByOwner(ctx context.Context, ownerID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db DBTX
}

// NewRefreshTokenRepository returns a Postgres-backed implementation.
func NewRefreshTokenRepository(db DBTX) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Upsert(ctx context.Context, ownerID, token string, expiresAt time.Time) (*domain.RefreshToken, error) {
	const query = `
        INSERT INTO refresh_tokens (user_id, token, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE
        SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = NOW()
        RETURNING id, user_id, token, expires_at, created_at, updated_at`

	return r.scanOne(ctx, query, ownerID, token, expiresAt)
}

func (r *refreshTokenRepository) GetByValue(ctx context.Context, token string) (*domain.RefreshToken, error) {
	const query = `
        SELECT id, user_id, token, expires_at, created_at, updated_at
        FROM refresh_tokens WHERE token=$1`

	return r.scanOne(ctx, query, token)
}

func (r *refreshTokenRepository) Replace(ctx context.Context, oldToken, newToken string, expiresAt, now time.Time) (*domain.RefreshToken, error) {
	const query = `
        UPDATE refresh_tokens SET token=$2, expires_at=$3, updated_at=NOW()
        WHERE token=$1 AND expires_at >= $4
        RETURNING id, user_id, token, expires_at, created_at, updated_at`

	return r.scanOne(ctx, query, oldToken, newToken, expiresAt, now)
}

func (r *refreshTokenRepository) DeleteByValue(ctx context.Context, token string) error {
	const query = `DELETE FROM refresh_tokens WHERE token=$1`
	_, err := r.db.Exec(ctx, query, token)
	return mapError(err)
}

func (r *refreshTokenRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id=$1`
	_, err := r.db.Exec(ctx, query, ownerID)
	return mapError(err)
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at < $1`
	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, mapError(err)
	}
	return cmd.RowsAffected(), nil
}

func (r *refreshTokenRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&token.ID,
		&token.OwnerID,
		&token.Token,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &token, nil
}
