package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/college-marketplace/internal/domain"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

// RequireAuthenticated rejects anonymous requests. The message is the same
// whatever made the credential unusable.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFrom(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) > 0 && !identity.HasRole(allowed...) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
