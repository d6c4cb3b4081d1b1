package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/college-marketplace/internal/api/dto"
	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/service"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

// AuthHandler exposes sign-in and session endpoints.
type AuthHandler struct {
	accounts *service.AuthService
	sessions *service.SessionService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(accounts *service.AuthService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	session, err := h.accounts.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSessionResponse(session)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	session, err := h.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(session)})
}

// Federated handles POST /auth/federated.
func (h *AuthHandler) Federated(c *fiber.Ctx) error {
	if !h.accounts.FederatedEnabled() {
		return mapServiceError(service.ErrFederatedDisabled)
	}
	var req dto.FederatedLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.IDToken) == "" {
		return apperrors.NewValidationError("id_token required", nil)
	}

	session, err := h.accounts.LoginFederated(c.UserContext(), req.IDToken)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(session)})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewValidationError("refresh_token required", nil)
	}

	session, err := h.sessions.RefreshSession(c.UserContext(), req.RefreshToken)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(session)})
}

// Logout handles POST /auth/logout. It succeeds for unknown or already
// discarded credentials.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	access, _ := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if access == "" && req.RefreshToken == "" {
		return apperrors.NewValidationError("bearer token or refresh_token required", nil)
	}

	if err := h.sessions.EndSession(c.UserContext(), req.RefreshToken, access); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// Introspect handles POST /auth/introspect.
func (h *AuthHandler) Introspect(c *fiber.Ctx) error {
	var req dto.IntrospectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	result, err := h.sessions.Introspect(c.UserContext(), req.Token)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewIntrospectionResponse(result)})
}
