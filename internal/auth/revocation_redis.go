package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RedisRegistry shares revocations between service instances. Entries are
// stored under the SHA-256 of the token and expire with the token, so Redis
// does the purging.
type RedisRegistry struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisRegistry wraps a go-redis client.
func NewRedisRegistry(client redis.Cmdable, now func() time.Time) *RedisRegistry {
	if now == nil {
		now = time.Now
	}
	return &RedisRegistry{client: client, now: now}
}

func (r *RedisRegistry) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.client.SetNX(ctx, revokedKey(token), 1, ttl).Err(); err != nil {
		return unavailable("revoke access token", err)
	}
	return nil
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, unavailable("check revocation", err)
	}
	return n > 0, nil
}

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedKeyPrefix + hex.EncodeToString(sum[:])
}
