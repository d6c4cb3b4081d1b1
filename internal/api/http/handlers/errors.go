package handlers

import (
	"errors"
	"net/http"

	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/service"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

// mapServiceError translates service and core sentinels into HTTP errors.
// Credential failures are reported without saying which check failed.
func mapServiceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrAuthUnavailable):
		return apperrors.NewServiceUnavailable("AUTH_UNAVAILABLE", "authentication unavailable", err)
	case errors.Is(err, service.ErrInvalidInput):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized("invalid credentials")
	case errors.Is(err, auth.ErrFederatedRejected):
		return apperrors.NewUnauthorized("identity token rejected")
	case errors.Is(err, auth.ErrInvalidOrExpired):
		return apperrors.NewDomainError("INVALID_REFRESH_TOKEN", "refresh token invalid or expired", http.StatusUnauthorized, nil)
	case errors.Is(err, service.ErrAccountBanned):
		return apperrors.NewForbidden("account banned")
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict("email already registered", nil)
	case errors.Is(err, service.ErrFederatedDisabled):
		return apperrors.NewNotEnabled("federated sign-in")
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewNotFound("user", nil)
	case errors.Is(err, service.ErrSelfBan):
		return apperrors.NewValidationError(err.Error(), nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
