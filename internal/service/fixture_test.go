package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/events"
	"github.com/spec-kit/college-marketplace/internal/repository"
)

const (
	testSecret     = "service-test-secret-0123456789abcdef"
	testAccessTTL  = 15 * time.Minute
	testRefreshTTL = 24 * time.Hour
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	clock    *fakeClock
	users    repository.UserRepository
	tokens   *auth.TokenManager
	refresh  *auth.RefreshStore
	registry *auth.MemoryRegistry
	gateway  *auth.Gateway
	events   *eventLog
	hasher   auth.PasswordHasher
	sessions *SessionService
	accounts *AuthService
}

type fixtureOption func(*fixture, *AuthDependencies)

func withFederated(v auth.FederatedVerifier) fixtureOption {
	return func(_ *fixture, deps *AuthDependencies) {
		deps.Federated = v
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		clock:    clock,
		users:    repository.NewMemoryUserRepository(),
		tokens:   auth.NewTokenManager(testSecret, testAccessTTL, auth.WithTokenClock(clock.Now)),
		registry: auth.NewMemoryRegistry(),
		events:   &eventLog{},
		hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
	}
	f.refresh = auth.NewRefreshStore(repository.NewMemoryRefreshTokenRepository(), testRefreshTTL, auth.WithRefreshClock(clock.Now))
	f.gateway = auth.NewGateway(f.tokens, f.registry, f.users, nil, nil)

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventPrincipalRegistered,
		events.EventSessionIssued,
		events.EventSessionRefreshed,
		events.EventSessionEnded,
		events.EventPrincipalBanned,
	} {
		dispatcher.Subscribe(et, f.events.handle)
	}

	f.sessions = NewSessionService(SessionDependencies{
		Tokens:     f.tokens,
		Refresh:    f.refresh,
		Revoked:    f.registry,
		Users:      f.users,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Now:        clock.Now,
	})
	deps := AuthDependencies{
		Users:      f.users,
		Sessions:   f.sessions,
		Hasher:     f.hasher,
		Dispatcher: dispatcher,
		Now:        clock.Now,
	}
	for _, opt := range opts {
		opt(f, &deps)
	}
	f.accounts = NewAuthService(deps)
	return f
}

func (f *fixture) addUser(t *testing.T, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	user := &domain.User{Name: email, Email: email, PasswordHash: hash, Role: role, Status: domain.UserStatusActive}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *fixture) authenticate(t *testing.T, access string) (domain.Identity, error) {
	t.Helper()
	return f.gateway.Authenticate(context.Background(), "Bearer "+access)
}

type brokenRegistry struct{}

func (brokenRegistry) Revoke(context.Context, string, time.Time) error {
	return errors.New("redis: connection refused")
}

func (brokenRegistry) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}
