package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/domain"
	"github.com/spec-kit/college-marketplace/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Users   *handlers.UsersHandler
	Admin   *handlers.AdminHandler
	Session *auth.SessionMiddleware
}

// ServerConfig bundles everything NewServer needs.
type ServerConfig struct {
	Name           string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Routes         RouteConfig
}

// NewServer builds the fiber application with middlewares and routes.
func NewServer(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.RequestTimeout)
	RegisterRoutes(app, cfg.Routes)
	return app
}

// RegisterRoutes wires HTTP routes. Credential exchange endpoints take their
// credentials explicitly; every other route runs behind the session gateway.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/federated", cfg.Auth.Federated)
	authGroup.Post("/refresh", cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/introspect", cfg.Session.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Auth.Introspect)

	users := app.Group("/users", cfg.Session.Handle, auth.RequireAuthenticated())
	users.Get("/me", cfg.Users.Me)

	admin := app.Group("/admin", cfg.Session.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users/:id/ban", cfg.Admin.BanUser)

	app.Get("/metrics", cfg.Session.Handle, auth.RequireRole(domain.RoleAdmin), cfg.Admin.Metrics)
}
