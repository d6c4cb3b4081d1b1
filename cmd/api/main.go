package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/college-marketplace/internal/api/http"
	"github.com/spec-kit/college-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/college-marketplace/internal/auth"
	"github.com/spec-kit/college-marketplace/internal/config"
	"github.com/spec-kit/college-marketplace/internal/events"
	"github.com/spec-kit/college-marketplace/internal/observability"
	"github.com/spec-kit/college-marketplace/internal/persistence"
	"github.com/spec-kit/college-marketplace/internal/repository"
	"github.com/spec-kit/college-marketplace/internal/service"
	"github.com/spec-kit/college-marketplace/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			return err
		}
	}

	userRepo, refreshRepo := repositories(pg)
	health := map[string]handlers.Pinger{}
	if pg.Enabled() {
		health["postgres"] = pg
	}

	var (
		registry auth.RevocationRegistry
		purger   auth.Purger
	)
	switch cfg.Auth.RevocationBackend {
	case config.RevocationBackendRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		registry = auth.NewRedisRegistry(rdb.Client, time.Now)
		health["redis"] = rdb
	default:
		memory := auth.NewMemoryRegistry()
		registry, purger = memory, memory
		logger.Warn("revocation registry is process-local; revocations are lost on restart and not shared between instances")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	refresh := auth.NewRefreshStore(refreshRepo, cfg.Auth.RefreshTokenTTL)

	sessions := service.NewSessionService(service.SessionDependencies{
		Tokens:     tokens,
		Refresh:    refresh,
		Revoked:    registry,
		Users:      userRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	deps := service.AuthDependencies{
		Users:      userRepo,
		Sessions:   sessions,
		Hasher:     auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	if cfg.OIDC.FederatedEnabled() {
		deps.Federated = auth.NewOIDCVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.JWKSURL, cfg.OIDC.ClientID, nil)
		logger.Info("federated sign-in enabled", zap.String("issuer", cfg.OIDC.IssuerURL))
	}
	accounts := service.NewAuthService(deps)
	if email := cfg.Auth.BootstrapAdminEmail; email != "" {
		if _, err := accounts.EnsureAdmin(ctx, email, cfg.Auth.BootstrapAdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	gateway := auth.NewGateway(tokens, registry, userRepo, logger.Named("gateway"), metrics)

	app := httptransport.NewServer(httptransport.ServerConfig{
		Name:           cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        metrics,
		Routes: httptransport.RouteConfig{
			Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, health),
			Auth:    handlers.NewAuthHandler(accounts, sessions),
			Users:   handlers.NewUsersHandler(accounts),
			Admin:   handlers.NewAdminHandler(accounts, metrics),
			Session: auth.NewSessionMiddleware(gateway),
		},
	})

	purge := worker.NewPurgeWorker(purger, refresh, cfg.Auth.PurgeInterval, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			return fmt.Errorf("fiber listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return purge.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func repositories(pg *persistence.Postgres) (repository.UserRepository, repository.RefreshTokenRepository) {
	if pg.Enabled() {
		return repository.NewUserRepository(pg.Pool), repository.NewRefreshTokenRepository(pg.Pool)
	}
	return repository.NewMemoryUserRepository(), repository.NewMemoryRefreshTokenRepository()
}
