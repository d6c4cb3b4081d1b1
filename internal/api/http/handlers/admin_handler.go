package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/college-marketplace/internal/api/dto"
	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/observability"
	"github.com/spec-kit/college-marketplace/internal/service"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

// AdminHandler exposes moderation and diagnostics for administrators.
type AdminHandler struct {
	accounts *service.AuthService
	metrics  *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(accounts *service.AuthService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{accounts: accounts, metrics: metrics}
}

// BanUser handles POST /admin/users/:id/ban.
func (h *AdminHandler) BanUser(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("user id required", nil)
	}

	user, err := h.accounts.BanUser(c.UserContext(), identity, id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Metrics handles GET /metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
