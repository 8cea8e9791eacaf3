// @title        Asset Verification Auth API
// @version      1.0
// @description  Session authentication, registration and page routing for the asset verification application.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/api"
	"github.com/squadron/asset-verification/internal/api/cookie"
	"github.com/squadron/asset-verification/internal/api/metrics"
	"github.com/squadron/asset-verification/internal/core/ports"
	"github.com/squadron/asset-verification/internal/core/service"
	"github.com/squadron/asset-verification/internal/guard"
	"github.com/squadron/asset-verification/internal/infrastructure/db/memory"
	mongodb "github.com/squadron/asset-verification/internal/infrastructure/db/mongo"
	redisstore "github.com/squadron/asset-verification/internal/infrastructure/db/redis"
	"github.com/squadron/asset-verification/internal/infrastructure/http/handlers"
	"github.com/squadron/asset-verification/internal/infrastructure/queue"
	"github.com/squadron/asset-verification/internal/pkg/config"
	"github.com/squadron/asset-verification/pkg/logger"
)

const (
	serviceName     = "backend"
	shutdownTimeout = 10 * time.Second
	auditLogSize    = 1000
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})
	if cfg.UsesDefaultSecret() {
		ev := log.Warn()
		if cfg.IsProduction() {
			ev = log.Error()
		}
		ev.Msg("SESSION_SECRET is the development default; set a real secret")
	}

	var (
		users   ports.UserRepository
		audit   ports.AuditRepository
		ready   = map[string]handlers.Pinger{}
		closers []func(context.Context) error
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](closeCtx); err != nil {
				log.Warn().Err(err).Msg("failed to close backend")
			}
		}
	}()

	switch cfg.Stores.Users {
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		closers = append(closers, client.Disconnect)

		repo := mongodb.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		users = repo
		audit = mongodb.NewAuditRepository(db)
		ready["mongo"] = mongodb.Pinger{DB: db}
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongo user store")
	default:
		users = memory.NewUserRepository()
		audit = memory.NewAuditRepository(auditLogSize)
	}

	var sessions ports.SessionStore
	switch cfg.Stores.Sessions {
	case config.StoreRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		closers = append(closers, func(context.Context) error { return client.Close() })

		sessions = redisstore.NewSessionStore(client, cfg.Session.TTL, cfg.Session.IdleTimeout)
		ready["redis"] = redisstore.Pinger{Client: client}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis session store")
	default:
		store := memory.NewSessionStore(memory.SessionOptions{
			TTL:         cfg.Session.TTL,
			IdleTimeout: cfg.Session.IdleTimeout,
			OnPurge:     func(n int) { metrics.SessionsExpiredTotal.Add(float64(n)) },
		}, logger.Component("sessions"))
		store.StartJanitor(ctx, cfg.Session.CleanupInterval)
		sessions = store
	}

	seed, err := service.LoadSeed(cfg.Auth.SeedUsersPath)
	if err != nil {
		return err
	}
	if _, err := service.SeedUsers(ctx, users, seed, cfg.Auth.BcryptCost, logger.Component("seed")); err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, service.NewAuditService(audit, logger.Component("audit")), logger.Component("audit_queue"))
	dispatcher.Start()

	authSvc := service.NewAuthService(users, sessions, dispatcher, service.AuthConfig{
		BcryptCost:    cfg.Auth.BcryptCost,
		DemoRoleLogin: cfg.Auth.DemoRoleLogin,
		DemoAccounts:  seed.DemoLogins,
	}, logger.Component("auth"))

	routes, err := guard.LoadTable(cfg.RoutesPath)
	if err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Auth:        authSvc,
		Audit:       audit,
		Routes:      routes,
		Cookies:     cookie.NewCodec(cfg.Session.Secret, cfg.IsProduction()),
		Ready:       ready,
		CORSOrigins: cfg.CORS.AllowedOrigins,
		ServiceName: serviceName,
		Metrics:     true,
		Swagger:     !cfg.IsProduction(),
		Log:         logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	return shutdown(e.Shutdown, dispatcher, log)
}

func shutdown(stopHTTP func(context.Context) error, dispatcher *queue.Dispatcher, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := stopHTTP(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	// requests are done; flush the audit events they produced
	if err := dispatcher.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("audit drain: %w", err))
	}
	if len(errs) == 0 {
		log.Info().Msg("shutdown complete")
	}
	return errors.Join(errs...)
}
