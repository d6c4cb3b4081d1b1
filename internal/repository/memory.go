package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/college-marketplace/internal/domain"
)

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

// NewMemoryUserRepository returns an in-process implementation used when no
// database is configured.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return ErrConflict
	}
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return ErrConflict
	}
	delete(r.byEmail, current.Email)

	user.UpdatedAt = time.Now()
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	current.Status = status
	current.UpdatedAt = time.Now()
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

// ownerSlot holds the single refresh token of one principal. All mutations of
// the principal's row and of its entry in the value index happen under mu.
type ownerSlot struct {
	mu    sync.Mutex
	token *domain.RefreshToken
}

type memoryRefreshTokenRepository struct {
	owners sync.Map // owner ID -> *ownerSlot
	values sync.Map // token value -> owner ID
}

// NewMemoryRefreshTokenRepository returns an in-process implementation that
// serialises writes per principal rather than globally.
func NewMemoryRefreshTokenRepository() RefreshTokenRepository {
	return &memoryRefreshTokenRepository{}
}

func (r *memoryRefreshTokenRepository) slot(ownerID string) *ownerSlot {
	s, _ := r.owners.LoadOrStore(ownerID, &ownerSlot{})
	return s.(*ownerSlot)
}

// slotForValue returns the locked slot currently holding token, or nil.
func (r *memoryRefreshTokenRepository) slotForValue(token string) *ownerSlot {
	owner, ok := r.values.Load(token)
	if !ok {
		return nil
	}
	s := r.slot(owner.(string))
	s.mu.Lock()
	if s.token == nil || s.token.Token != token {
		s.mu.Unlock()
		return nil
	}
	return s
}

func (r *memoryRefreshTokenRepository) Upsert(_ context.Context, ownerID, token string, expiresAt time.Time) (*domain.RefreshToken, error) {
	s := r.slot(ownerID)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.token == nil {
		s.token = &domain.RefreshToken{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: now}
	} else {
		r.values.Delete(s.token.Token)
	}
	s.token.Token = token
	s.token.ExpiresAt = expiresAt
	s.token.UpdatedAt = now
	r.values.Store(token, ownerID)

	out := *s.token
	return &out, nil
}

func (r *memoryRefreshTokenRepository) GetByValue(_ context.Context, token string) (*domain.RefreshToken, error) {
	s := r.slotForValue(token)
	if s == nil {
		return nil, ErrNotFound
	}
	defer s.mu.Unlock()

	out := *s.token
	return &out, nil
}

func (r *memoryRefreshTokenRepository) Replace(_ context.Context, oldToken, newToken string, expiresAt, now time.Time) (*domain.RefreshToken, error) {
	s := r.slotForValue(oldToken)
	if s == nil {
		return nil, ErrNotFound
	}
	defer s.mu.Unlock()

	if s.token.ExpiresAt.Before(now) {
		return nil, ErrNotFound
	}
	r.values.Delete(oldToken)
	s.token.Token = newToken
	s.token.ExpiresAt = expiresAt
	s.token.UpdatedAt = time.Now()
	r.values.Store(newToken, s.token.OwnerID)

	out := *s.token
	return &out, nil
}

func (r *memoryRefreshTokenRepository) DeleteByValue(_ context.Context, token string) error {
	s := r.slotForValue(token)
	if s == nil {
		return nil
	}
	defer s.mu.Unlock()

	r.values.Delete(token)
	s.token = nil
	return nil
}

func (r *memoryRefreshTokenRepository) DeleteByOwner(_ context.Context, ownerID string) error {
	s := r.slot(ownerID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil {
		r.values.Delete(s.token.Token)
		s.token = nil
	}
	return nil
}

func (r *memoryRefreshTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	r.owners.Range(func(_, value any) bool {
		s := value.(*ownerSlot)
		s.mu.Lock()
		if s.token != nil && s.token.ExpiresAt.Before(now) {
			r.values.Delete(s.token.Token)
			s.token = nil
			removed++
		}
		s.mu.Unlock()
		return true
	})
	return removed, nil
}
