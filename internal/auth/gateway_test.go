package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/repository"
)

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordAuthOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[outcome]++
}

type gatewayFixture struct {
	clock    *fakeClock
	tokens   *TokenManager
	registry *MemoryRegistry
	users    repository.UserRepository
	recorder *countingRecorder
	logs     *observer.ObservedLogs
	gateway  *Gateway
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	clock := newFakeClock()
	core, logs := observer.New(zap.DebugLevel)
	f := &gatewayFixture{
		clock:    clock,
		tokens:   NewTokenManager(testSecret, 15*time.Minute, WithTokenClock(clock.Now)),
		registry: NewMemoryRegistry(),
		users:    repository.NewMemoryUserRepository(),
		recorder: &countingRecorder{},
		logs:     logs,
	}
	f.gateway = NewGateway(f.tokens, f.registry, f.users, zap.New(core), f.recorder)
	return f
}

func (f *gatewayFixture) addUser(t *testing.T, email string, role domain.Role, status domain.UserStatus) *domain.User {
	t.Helper()
	user := &domain.User{Name: email, Email: email, Role: role, Status: status}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *gatewayFixture) bearer(t *testing.T, user *domain.User) (string, string) {
	t.Helper()
	token, _, err := f.tokens.Issue(user, "jti-"+user.Email)
	require.NoError(t, err)
	return token, "Bearer " + token
}

func TestGateway_Authenticated(t *testing.T) {
	f := newGatewayFixture(t)
	user := f.addUser(t, "alice@example.com", domain.RoleStudent, domain.UserStatusActive)
	_, header := f.bearer(t, user)

	identity, err := f.gateway.Authenticate(context.Background(), header)
	require.NoError(t, err)
	require.True(t, identity.IsAuthenticated())
	require.Equal(t, user.ID, identity.PrincipalID)
	require.Equal(t, "alice@example.com", identity.Subject)
	require.Equal(t, []string{"ROLE_STUDENT"}, identity.Authorities)
	require.Equal(t, 1, f.recorder.counts[OutcomeAuthenticated])
}

func TestGateway_DegradesToAnonymous(t *testing.T) {
	f := newGatewayFixture(t)
	active := f.addUser(t, "alice@example.com", domain.RoleStudent, domain.UserStatusActive)
	banned := f.addUser(t, "bob@example.com", domain.RoleStudent, domain.UserStatusBanned)
	ghost := &domain.User{Email: "ghost@example.com", Role: domain.RoleStudent}

	_, activeHeader := f.bearer(t, active)
	_, bannedHeader := f.bearer(t, banned)
	_, ghostHeader := f.bearer(t, ghost)
	forged, _, err := NewTokenManager("someone-elses-secret-0123456789abcd", time.Hour).Issue(active, "jti-forged")
	require.NoError(t, err)

	expiredTokens := NewTokenManager(testSecret, time.Minute, WithTokenClock(func() time.Time {
		return f.clock.Now().Add(-time.Hour)
	}))
	expired, _, err := expiredTokens.Issue(active, "jti-expired")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		outcome string
	}{
		{name: "no header", header: "", outcome: OutcomeAnonymous},
		{name: "unknown scheme", header: "Basic dXNlcjpwYXNz", outcome: OutcomeAnonymous},
		{name: "scheme only", header: "Bearer ", outcome: OutcomeAnonymous},
		{name: "malformed token", header: "Bearer not-a-token", outcome: OutcomeMalformed},
		{name: "forged signature", header: "Bearer " + forged, outcome: OutcomeInvalidSignature},
		{name: "expired", header: "Bearer " + expired, outcome: OutcomeExpired},
		{name: "unknown principal", header: ghostHeader, outcome: OutcomePrincipalMissing},
		{name: "banned principal", header: bannedHeader, outcome: OutcomePrincipalBlocked},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := f.gateway.Authenticate(context.Background(), tc.header)
			require.NoError(t, err)
			require.False(t, identity.IsAuthenticated())
			require.Positive(t, f.recorder.counts[tc.outcome])
		})
	}

	identity, err := f.gateway.Authenticate(context.Background(), activeHeader)
	require.NoError(t, err)
	require.True(t, identity.IsAuthenticated())

	require.Equal(t, 1, f.logs.FilterMessage("token signature mismatch").Len(), "tampering is logged at warn")
	require.Equal(t, zap.WarnLevel, f.logs.FilterMessage("token signature mismatch").All()[0].Level)
}

func TestGateway_RevokedIsHardFailure(t *testing.T) {
	f := newGatewayFixture(t)
	user := f.addUser(t, "alice@example.com", domain.RoleStudent, domain.UserStatusActive)
	token, header := f.bearer(t, user)

	require.NoError(t, f.registry.Revoke(context.Background(), token, f.clock.Now().Add(time.Hour)))

	identity, err := f.gateway.Authenticate(context.Background(), header)
	require.ErrorIs(t, err, ErrRevoked)
	require.False(t, identity.IsAuthenticated())

	f.clock.Advance(time.Second)
	_, otherHeader := f.bearer(t, user)
	identity, err = f.gateway.Authenticate(context.Background(), otherHeader)
	require.NoError(t, err)
	require.True(t, identity.IsAuthenticated(), "a newer token of the same principal is unaffected")
}

func TestGateway_ReusesEstablishedIdentity(t *testing.T) {
	f := newGatewayFixture(t)
	user := f.addUser(t, "alice@example.com", domain.RoleAdmin, domain.UserStatusActive)
	_, header := f.bearer(t, user)

	established := domain.NewIdentity(user)
	ctx := WithIdentity(context.Background(), established)

	// Banning in the store is not observed: the identity was already set.
	require.NoError(t, f.users.UpdateStatus(context.Background(), user.ID, domain.UserStatusBanned))
	identity, err := f.gateway.Authenticate(ctx, header)
	require.NoError(t, err)
	require.Equal(t, established.Subject, identity.Subject)
}

type brokenUsers struct{}

func (brokenUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, context.DeadlineExceeded
}

type brokenRegistry struct{}

func (brokenRegistry) Revoke(context.Context, string, time.Time) error { return nil }

func (brokenRegistry) IsRevoked(context.Context, string) (bool, error) {
	return false, unavailable("check revocation", errors.New("connection refused"))
}

func TestGateway_InfrastructureFailure(t *testing.T) {
	f := newGatewayFixture(t)
	user := &domain.User{Email: "alice@example.com", Role: domain.RoleStudent, Status: domain.UserStatusActive}
	_, header := f.bearer(t, user)

	gw := NewGateway(f.tokens, f.registry, brokenUsers{}, nil, nil)
	_, err := gw.Authenticate(context.Background(), header)
	require.ErrorIs(t, err, ErrAuthUnavailable)
	require.NotErrorIs(t, err, ErrRevoked)

	gw = NewGateway(f.tokens, brokenRegistry{}, f.users, nil, nil)
	_, err = gw.Authenticate(context.Background(), header)
	require.ErrorIs(t, err, ErrAuthUnavailable)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearerabc", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		token, ok := BearerToken(tc.header)
		require.Equal(t, tc.ok, ok, tc.header)
		require.Equal(t, tc.token, token, tc.header)
	}
}
