package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/events"
	"github.com/spec-kit/college-marketplace/internal/repository"
)

const minPasswordLength = 8

// Sign-in methods recorded on session_issued events.
const (
	MethodRegistration = "registration"
	MethodPassword     = "password"
	MethodFederated    = "federated"
)

// Account errors surfaced to the HTTP layer.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountBanned      = errors.New("account banned")
	ErrFederatedDisabled  = errors.New("federated sign-in disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfBan            = errors.New("administrators cannot ban themselves")
)

// AuthService coordinates registration, sign-in and account moderation. It is
// the only caller of SessionService.IssueSession.
type AuthService struct {
	users      repository.UserRepository
	sessions   *SessionService
	hasher     auth.PasswordHasher
	federated  auth.FederatedVerifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of AuthService. Federated may be
// nil, which disables LoginFederated.
type AuthDependencies struct {
	Users      repository.UserRepository
	Sessions   *SessionService
	Hasher     auth.PasswordHasher
	Federated  auth.FederatedVerifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:      deps.Users,
		sessions:   deps.Sessions,
		hasher:     deps.Hasher,
		federated:  deps.Federated,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// FederatedEnabled reports whether third-party sign-in is configured.
func (s *AuthService) FederatedEnabled() bool {
	return s.federated != nil
}

// Register creates a STUDENT account and opens its first session.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleStudent,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("account registered", zap.String("principal_id", user.ID))
	publishEvent(ctx, s.dispatcher, s.logger, s.now(), events.EventPrincipalRegistered, user, nil)
	return s.sessions.IssueSession(ctx, user, MethodRegistration)
}

// Login checks the password and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.PasswordHash == "" || !s.hasher.Matches(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.CanAuthenticate() {
		return nil, ErrAccountBanned
	}
	return s.sessions.IssueSession(ctx, user, MethodPassword)
}

// LoginFederated accepts a verified third-party ID token, creating the
// account on first sign-in.
func (s *AuthService) LoginFederated(ctx context.Context, idToken string) (*Session, error) {
	if s.federated == nil {
		return nil, ErrFederatedDisabled
	}
	identity, err := s.federated.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(identity.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrFederatedRejected, err)
	}

	user, err := s.findOrCreateFederated(ctx, email, identity.Name)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, ErrAccountBanned
	}
	return s.sessions.IssueSession(ctx, user, MethodFederated)
}

func (s *AuthService) findOrCreateFederated(ctx context.Context, email, name string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		name = email
	}
	user = &domain.User{
		Name:   name,
		Email:  email,
		Role:   domain.RoleStudent,
		Status: domain.UserStatusActive,
	}
	err = s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrConflict) {
		// another sign-in created it first
		return s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("account registered", zap.String("principal_id", user.ID), zap.String("method", MethodFederated))
	publishEvent(ctx, s.dispatcher, s.logger, s.now(), events.EventPrincipalRegistered, user, nil)
	return user, nil
}

// BanUser blocks the account and ends its sessions. Access tokens it still
// holds stop authenticating because the gateway checks account status.
func (s *AuthService) BanUser(ctx context.Context, actor domain.Identity, userID string) (*domain.User, error) {
	if actor.PrincipalID == userID {
		return nil, ErrSelfBan
	}

	user, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Status == domain.UserStatusBanned {
		return user, nil
	}

	if err := s.users.UpdateStatus(ctx, userID, domain.UserStatusBanned); err != nil {
		return nil, fmt.Errorf("ban user: %w", err)
	}
	user.Status = domain.UserStatusBanned
	if err := s.sessions.EndAllSessions(ctx, userID); err != nil {
		return nil, err
	}

	s.logger.Info("account banned", zap.String("principal_id", userID), zap.String("banned_by", actor.Subject))
	publishEvent(ctx, s.dispatcher, s.logger, s.now(), events.EventPrincipalBanned, user,
		events.PrincipalBannedPayload{BannedBy: actor.Subject})
	return user, nil
}

// EnsureAdmin makes the account with the given email an ADMIN, creating it
// with password when it does not exist yet. It backs the startup bootstrap,
// since registration and federated sign-in only ever create STUDENT accounts.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == domain.RoleAdmin {
			return user, nil
		}
		user.Role = domain.RoleAdmin
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		s.logger.Warn("account promoted to admin", zap.String("principal_id", user.ID))
		return user, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load user: %w", err)
	}

	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: admin password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	user = &domain.User{
		Name:         email,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Warn("admin account created", zap.String("principal_id", user.ID))
	publishEvent(ctx, s.dispatcher, s.logger, s.now(), events.EventPrincipalRegistered, user, nil)
	return user, nil
}

// Profile returns the account behind an authenticated identity.
func (s *AuthService) Profile(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identity.PrincipalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return email, nil
}
