package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/repository"
)

const bearerScheme = "Bearer"

// Authentication outcomes reported to the OutcomeRecorder.
const (
	OutcomeAnonymous        = "anonymous"
	OutcomeAuthenticated    = "authenticated"
	OutcomeMalformed        = "malformed"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeExpired          = "expired"
	OutcomeRevoked          = "revoked"
	OutcomePrincipalMissing = "principal_not_found"
	OutcomePrincipalBlocked = "principal_inactive"
	OutcomeUnavailable      = "unavailable"
)

// PrincipalLookup loads principals by subject (email).
type PrincipalLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OutcomeRecorder counts authentication outcomes.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// Gateway resolves the identity of a single request from its Authorization
// header. Only a revoked token and infrastructure failure are errors; every
// other failure yields the anonymous identity and leaves rejection to
// endpoint authorization.
type Gateway struct {
	tokens   *TokenManager
	revoked  RevocationRegistry
	users    PrincipalLookup
	logger   *zap.Logger
	recorder OutcomeRecorder
}

// NewGateway composes the gateway. recorder may be nil.
func NewGateway(tokens *TokenManager, revoked RevocationRegistry, users PrincipalLookup, logger *zap.Logger, recorder OutcomeRecorder) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{tokens: tokens, revoked: revoked, users: users, logger: logger, recorder: recorder}
}

// Authenticate returns domain.Anonymous with a nil error when the request
// carries no usable credential, ErrRevoked when it presents a revoked token,
// and an ErrAuthUnavailable-wrapped error when a backing store fails.
func (g *Gateway) Authenticate(ctx context.Context, header string) (domain.Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		g.record(OutcomeAnonymous)
		return domain.Anonymous, nil
	}

	subject, err := g.tokens.ExtractSubject(token)
	if err != nil {
		g.rejectToken(err, "")
		return domain.Anonymous, nil
	}

	revoked, err := g.revoked.IsRevoked(ctx, token)
	if err != nil {
		g.record(OutcomeUnavailable)
		g.logger.Error("revocation check failed", zap.Error(err))
		return domain.Anonymous, err
	}
	if revoked {
		g.record(OutcomeRevoked)
		g.logger.Warn("revoked token presented", zap.String("subject", subject))
		return domain.Anonymous, ErrRevoked
	}

	if identity, ok := IdentityFromContext(ctx); ok {
		return identity, nil
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.rejectToken(err, subject)
		return domain.Anonymous, nil
	}

	user, err := g.users.GetByEmail(ctx, claims.Subject)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		g.record(OutcomePrincipalMissing)
		g.logger.Info("authentication rejected", zap.String("subject", subject), zap.Error(ErrPrincipalNotFound))
		return domain.Anonymous, nil
	case err != nil:
		g.record(OutcomeUnavailable)
		g.logger.Error("principal lookup failed", zap.String("subject", subject), zap.Error(err))
		return domain.Anonymous, unavailable("load principal", err)
	case !user.CanAuthenticate():
		g.record(OutcomePrincipalBlocked)
		g.logger.Info("authentication rejected", zap.String("subject", subject), zap.Error(ErrPrincipalInactive))
		return domain.Anonymous, nil
	}

	identity := domain.NewIdentity(user)
	g.record(OutcomeAuthenticated)
	g.logger.Debug("authenticated",
		zap.String("subject", identity.Subject),
		zap.String("role", string(identity.Role)))
	return identity, nil
}

func (g *Gateway) rejectToken(err error, subject string) {
	switch {
	case errors.Is(err, ErrInvalidSignature):
		g.record(OutcomeInvalidSignature)
		g.logger.Warn("token signature mismatch", zap.String("subject", subject))
	case errors.Is(err, ErrExpired):
		g.record(OutcomeExpired)
		g.logger.Debug("token expired", zap.String("subject", subject))
	default:
		g.record(OutcomeMalformed)
		g.logger.Debug("token malformed", zap.Error(err))
	}
}

func (g *Gateway) record(outcome string) {
	if g.recorder != nil {
		g.recorder.RecordAuthOutcome(outcome)
	}
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
