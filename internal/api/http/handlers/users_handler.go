package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/college-marketplace/internal/api/dto"
	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/service"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints for signed-in users.
type UsersHandler struct {
	accounts *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(accounts *service.AuthService) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.accounts.Profile(c.UserContext(), identity)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
