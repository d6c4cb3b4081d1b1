package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationRegistry records access tokens invalidated before their natural
// expiry.
type RevocationRegistry interface {
	// Revoke adds the raw token. expiresAt is the token's natural expiry,
	// after which the entry may be discarded. Revoking twice is a no-op.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Purger is implemented by registries that need explicit housekeeping.
type Purger interface {
	Purge(now time.Time) int
}

// MemoryRegistry is a process-local revocation set. It is not persisted:
// after a restart, revoked tokens that have not yet expired are accepted
// again until their natural expiry, and other instances of the service never
// see its entries. Use RedisRegistry when either matters.
type MemoryRegistry struct {
	entries sync.Map // token -> natural expiry (time.Time)
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

func (r *MemoryRegistry) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	r.entries.LoadOrStore(token, expiresAt)
	return nil
}

func (r *MemoryRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	_, ok := r.entries.Load(token)
	return ok, nil
}

// Purge drops entries whose token has passed its natural expiry. Such tokens
// fail the expiry check anyway.
func (r *MemoryRegistry) Purge(now time.Time) int {
	removed := 0
	r.entries.Range(func(key, value any) bool {
		if now.After(value.(time.Time)) {
			r.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of entries currently held.
func (r *MemoryRegistry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
