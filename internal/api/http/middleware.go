package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/observability"
	apperrors "github.com/spec-kit/college-marketplace/pkg/util/errorutil"
)

// RegisterMiddlewares attaches the global chain, outermost first: request
// deadline, error rendering, request logging. The deadline wraps the whole
// chain so every context taken from c.UserContext() shares one budget. The
// logger runs inside the error handler and derives the status from the
// returned error before it is rendered.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// requestTimeoutMiddleware puts a deadline on the request's user context. It
// does not interrupt the handler; it bounds session gateway lookups and
// Postgres or Redis calls that take their context from c.UserContext().
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				body := fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}
				if len(domainErr.Details) > 0 {
					body["details"] = domainErr.Details
				}
				switch {
				case domainErr.HTTPStatus == fiber.StatusServiceUnavailable:
					logger.Warn("dependency unavailable", zap.String("code", domainErr.Code), zap.Error(domainErr))
				case domainErr.HTTPStatus >= fiber.StatusInternalServerError:
					logger.Error("request failed", zap.Error(domainErr))
				}
				if domainErr.HTTPStatus == fiber.StatusUnauthorized {
					c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="college-marketplace"`)
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(fiber.Map{"error": body})
				err = nil
			}
		}()
		return c.Next()
	}
}
