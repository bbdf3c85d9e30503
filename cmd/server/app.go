package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/api"
	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// dependencies are the storage and cache collaborators of an application.
// Production wiring uses postgres and the configured cache backend; tests
// substitute in-memory doubles.
type dependencies struct {
	Users store.UserStore
	Tasks store.TaskStore
	Stats store.StatsStore
	Tx    store.TxRunner
	Cache cacheBackend

	// Checks are probed by the health endpoint.
	Checks map[string]api.HealthCheck

	// Hasher and Verifier default to bcrypt.
	Hasher   auth.PasswordHasher
	Verifier auth.PasswordVerifier
}

func postgresDependencies(db *sql.DB, logger *slog.Logger, backend cacheBackend) dependencies {
	checks := map[string]api.HealthCheck{"database": db.PingContext}
	if backend.Probe != nil {
		checks["cache"] = backend.Probe
	}

	return dependencies{
		Users:  postgres.NewPostgresUserStore(db, logger),
		Tasks:  postgres.NewPostgresTaskStore(db, logger),
		Stats:  postgres.NewPostgresStatsStore(db, logger),
		Tx:     store.DBTxRunner{DB: db},
		Cache:  backend,
		Checks: checks,
	}
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	deps   dependencies

	accounts service.AccountService
	tasks    service.TaskService
	resolver *auth.Resolver
}

// newApplication creates a new application instance with all services
// constructed over deps.
func newApplication(cfg *config.Config, logger *slog.Logger, deps dependencies) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	}
	verifier := deps.Verifier
	if verifier == nil {
		verifier = auth.NewBcryptVerifier()
	}

	app.accounts, err = service.NewAccountService(service.AccountServiceConfig{
		Users:         deps.Users,
		Tx:            deps.Tx,
		JWT:           jwtService,
		Hasher:        hasher,
		Verifier:      verifier,
		TokenLifetime: cfg.Auth.TokenLifetime(),
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize account service: %w", err)
	}

	app.tasks, err = service.NewTaskService(service.TaskServiceConfig{
		Tasks:      deps.Tasks,
		Stats:      deps.Stats,
		Pages:      cache.NewTaskPageCache(deps.Cache, logger),
		PageTTL:    cfg.Cache.TasksTTL(),
		StatsCache: cache.NewStatsCache(deps.Cache),
		StatsTTL:   cfg.Cache.StatsTTL(),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize task service: %w", err)
	}

	app.resolver = auth.NewResolver(auth.ResolverConfig{
		JWT:         jwtService,
		Users:       deps.Users,
		Revocations: cache.NewRevocationRegistry(deps.Cache),
		Identities:  cache.NewIdentityCache(deps.Cache, logger),
		IdentityTTL: cfg.Cache.UserTTL(),
		ClockSkew:   cfg.Auth.ClockSkew(),
		Logger:      logger,
	})

	return app, nil
}

// cleanup releases resources owned by the application. The database handle
// is owned and closed by the caller.
func (app *application) cleanup(_ context.Context) {
	if err := app.deps.Cache.Close(); err != nil {
		app.logger.Error("failed to close cache backend", slog.String("error", err.Error()))
	}
}
