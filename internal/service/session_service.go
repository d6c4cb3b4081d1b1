package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/events"
	"github.com/spec-kit/college-marketplace/internal/repository"
)

// Session is the credential pair handed to a client.
type Session struct {
	Principal        *domain.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Introspection is the diagnostic view of an access token. Reason is empty
// when Valid is true.
type Introspection struct {
	Valid     bool
	Subject   string
	Role      domain.Role
	ExpiresAt *time.Time
	Reason    string
}

// SessionService opens, rotates and closes sessions.
type SessionService struct {
	tokens     *auth.TokenManager
	refresh    *auth.RefreshStore
	revoked    auth.RevocationRegistry
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	tokenID    func() (string, error)
}

// SessionDependencies groups the collaborators of SessionService.
type SessionDependencies struct {
	Tokens     *auth.TokenManager
	Refresh    *auth.RefreshStore
	Revoked    auth.RevocationRegistry
	Users      repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
	TokenID    func() (string, error)
}

// NewSessionService builds the service. Dispatcher, Logger, Now and TokenID
// are optional; TokenID generates the jti of each access token and defaults
// to a random UUID.
func NewSessionService(deps SessionDependencies) *SessionService {
	s := &SessionService{
		tokens:     deps.Tokens,
		refresh:    deps.Refresh,
		revoked:    deps.Revoked,
		users:      deps.Users,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
		tokenID:    deps.TokenID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tokenID == nil {
		s.tokenID = randomTokenID
	}
	return s
}

func randomTokenID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// sign issues the access token. It runs before any refresh row is written so
// a signing failure leaves the caller's current refresh token usable.
func (s *SessionService) sign(user *domain.User) (string, time.Time, error) {
	id, err := s.tokenID()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token id: %w", err)
	}
	access, exp, err := s.tokens.Issue(user, id)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return access, exp, nil
}

// IssueSession gives the principal a new access token and replaces its
// refresh token. method names the sign-in flow for the audit trail.
func (s *SessionService) IssueSession(ctx context.Context, user *domain.User, method string) (*Session, error) {
	access, accessExp, err := s.sign(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.IssueOrRotate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventSessionIssued, user, events.SessionIssuedPayload{Method: method, Role: user.Role})
	return &Session{
		Principal:        user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

// RefreshSession exchanges a live refresh token for a new pair. Every
// credential problem is reported as auth.ErrInvalidOrExpired; storage
// failures carry auth.ErrAuthUnavailable.
func (s *SessionService) RefreshSession(ctx context.Context, refreshValue string) (*Session, error) {
	if refreshValue == "" {
		return nil, auth.ErrInvalidOrExpired
	}

	row, err := s.refresh.Verify(ctx, refreshValue)
	switch {
	case errors.Is(err, auth.ErrRefreshNotFound), errors.Is(err, auth.ErrExpired):
		return nil, fmt.Errorf("%w: %w", auth.ErrInvalidOrExpired, err)
	case err != nil:
		return nil, err
	}

	user, err := s.users.GetByID(ctx, row.OwnerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, s.dropRefresh(ctx, refreshValue, auth.ErrPrincipalNotFound)
	case err != nil:
		return nil, fmt.Errorf("load principal: %w: %w", auth.ErrAuthUnavailable, err)
	case !user.CanAuthenticate():
		return nil, s.dropRefresh(ctx, refreshValue, auth.ErrPrincipalInactive)
	}

	access, accessExp, err := s.sign(user)
	if err != nil {
		return nil, err
	}

	rotated, err := s.refresh.Rotate(ctx, refreshValue)
	switch {
	case errors.Is(err, auth.ErrStale):
		s.logger.Info("refresh token lost rotation race", zap.String("principal_id", user.ID))
		return nil, fmt.Errorf("%w: %w", auth.ErrInvalidOrExpired, err)
	case err != nil:
		return nil, err
	}

	s.publish(ctx, events.EventSessionRefreshed, user, nil)
	return &Session{
		Principal:        user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     rotated.Token,
		RefreshExpiresAt: rotated.ExpiresAt,
	}, nil
}

func (s *SessionService) dropRefresh(ctx context.Context, refreshValue string, reason error) error {
	if err := s.refresh.Revoke(ctx, refreshValue); err != nil {
		return err
	}
	return fmt.Errorf("%w: %w", auth.ErrInvalidOrExpired, reason)
}

// EndSession revokes the access token until its natural expiry and deletes
// the refresh token. Either value may be empty. Repeating the call is a
// no-op; only storage failures are errors.
func (s *SessionService) EndSession(ctx context.Context, refreshValue, accessToken string) error {
	var (
		payload events.SessionEndedPayload
		subject string
	)

	if accessToken != "" {
		claims, err := s.tokens.Inspect(accessToken)
		switch {
		case err != nil:
			s.logger.Debug("logout with unusable access token", zap.Error(err))
		case !s.now().After(claims.ExpiresAt.Time):
			if err := s.revoked.Revoke(ctx, accessToken, claims.ExpiresAt.Time); err != nil {
				return fmt.Errorf("revoke access token: %w: %w", auth.ErrAuthUnavailable, err)
			}
			payload.AccessRevoked = true
			subject = claims.Subject
		default:
			subject = claims.Subject
		}
	}

	if refreshValue != "" {
		if err := s.refresh.Revoke(ctx, refreshValue); err != nil {
			return err
		}
		payload.RefreshRevoked = true
	}

	if subject != "" {
		s.publish(ctx, events.EventSessionEnded, &domain.User{Email: subject}, payload)
	}
	return nil
}

// Introspect reports whether accessToken would authenticate a request right
// now and, if not, why.
func (s *SessionService) Introspect(ctx context.Context, accessToken string) (*Introspection, error) {
	claims, err := s.tokens.Inspect(accessToken)
	if err != nil {
		return &Introspection{Reason: reasonFor(err)}, nil
	}

	exp := claims.ExpiresAt.Time
	result := &Introspection{Subject: claims.Subject, Role: claims.Role, ExpiresAt: &exp}

	revoked, err := s.revoked.IsRevoked(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("revocation check: %w: %w", auth.ErrAuthUnavailable, err)
	}
	if revoked {
		result.Reason = auth.OutcomeRevoked
		return result, nil
	}

	if _, err := s.tokens.Verify(accessToken); err != nil {
		result.Reason = reasonFor(err)
		return result, nil
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		result.Reason = auth.OutcomePrincipalMissing
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("load principal: %w: %w", auth.ErrAuthUnavailable, err)
	case !user.CanAuthenticate():
		result.Reason = auth.OutcomePrincipalBlocked
		return result, nil
	}

	result.Valid = true
	result.Role = user.Role
	return result, nil
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return auth.OutcomeExpired
	case errors.Is(err, auth.ErrInvalidSignature):
		return auth.OutcomeInvalidSignature
	default:
		return auth.OutcomeMalformed
	}
}

// EndAllSessions deletes the principal's refresh token. Access tokens already
// issued stop authenticating once the principal is no longer active.
func (s *SessionService) EndAllSessions(ctx context.Context, principalID string) error {
	return s.refresh.RevokeByPrincipal(ctx, principalID)
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, user *domain.User, payload interface{}) {
	publishEvent(ctx, s.dispatcher, s.logger, s.now(), eventType, user, payload)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, at time.Time, eventType events.EventType, user *domain.User, payload interface{}) {
	if dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		PrincipalID: user.ID,
		Subject:     user.Email,
		Timestamp:   at.UTC(),
		Payload:     payload,
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
