package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/college-marketplace/internal/domain"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

const identityLocalsKey = "auth_identity"

// SessionMiddleware runs the Gateway for every request. Authentication
// failures other than revocation let the request continue anonymously.
type SessionMiddleware struct {
	gateway *Gateway
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(gateway *Gateway) *SessionMiddleware {
	return &SessionMiddleware{gateway: gateway}
}

// Handle establishes the request identity.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	identity, err := m.gateway.Authenticate(ctx, c.Get(fiber.HeaderAuthorization))
	switch {
	case errors.Is(err, ErrRevoked):
		return apperrors.NewUnauthorized("token revoked")
	case err != nil:
		return apperrors.NewServiceUnavailable("AUTH_UNAVAILABLE", "authentication unavailable", err)
	}

	if identity.IsAuthenticated() {
		c.SetUserContext(WithIdentity(ctx, identity))
		c.Locals(identityLocalsKey, identity)
	}
	return c.Next()
}

// IdentityFrom retrieves the identity established for the request.
func IdentityFrom(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityLocalsKey).(domain.Identity)
	if !ok || !identity.IsAuthenticated() {
		return domain.Anonymous, false
	}
	return identity, true
}
