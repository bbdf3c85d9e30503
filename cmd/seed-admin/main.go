// Package main implements seed-admin, which creates the administrator account
// or promotes an existing user to administrator.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/platform/redis"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/spf13/pflag"
)

type options struct {
	username string
	email    string
	password string
}

func parseFlags(args []string) (options, error) {
	var opts options

	fs := pflag.NewFlagSet("seed-admin", pflag.ContinueOnError)
	fs.StringVar(&opts.username, "username", "admin", "administrator username")
	fs.StringVar(&opts.email, "email", "admin@example.com", "administrator email")
	fs.StringVar(&opts.password, "password", "Admin123", "administrator password, used only when the account is created")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		slog.Error("seed-admin failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// Only a shared cache can hold a stale identity for another process.
	var identities *cache.IdentityCache
	if cfg.Cache.Backend == config.CacheBackendRedis {
		rs, err := redis.Open(ctx, cfg.Cache.RedisURL, log)
		if err != nil {
			log.Warn("identity cache unreachable, cached role may persist until it expires",
				slog.String("error", err.Error()))
		} else {
			defer func() { _ = rs.Close() }()
			identities = cache.NewIdentityCache(rs, log)
		}
	}

	seeder := &adminSeeder{
		users:      postgres.NewPostgresUserStore(db, log),
		hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		identities: identities,
		logger:     log,
	}
	_, err = seeder.Seed(ctx, opts)
	return err
}

// adminSeeder ensures a single administrator account exists.
type adminSeeder struct {
	users      store.UserStore
	hasher     auth.PasswordHasher
	identities *cache.IdentityCache
	logger     *slog.Logger
}

// Seed creates the account described by opts with the admin role, or
// promotes it when the username is already registered. The password of an
// existing account is left untouched.
func (s *adminSeeder) Seed(ctx context.Context, opts options) (*domain.User, error) {
	username := domain.NormalizeUsername(opts.username)

	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return s.promote(ctx, existing)
	case !errors.Is(err, store.ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up %s: %w", username, err)
	}

	user, err := domain.NewUser(opts.username, opts.email, opts.password)
	if err != nil {
		return nil, err
	}
	user.Role = domain.RoleAdmin

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", username, err)
	}

	s.logger.Info("administrator created",
		slog.String("username", user.Username),
		slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *adminSeeder) promote(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.Role == domain.RoleAdmin {
		s.logger.Info("user is already an administrator", slog.String("username", user.Username))
		return user, nil
	}

	promoted, err := s.users.SetRole(ctx, user.Username, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to promote %s: %w", user.Username, err)
	}

	if s.identities != nil {
		if err := s.identities.Invalidate(ctx, promoted.Username); err != nil {
			s.logger.Warn("failed to invalidate cached identity",
				slog.String("username", promoted.Username),
				slog.String("error", err.Error()))
		}
	}

	s.logger.Info("user promoted to administrator",
		slog.String("username", promoted.Username),
		slog.Int64("user_id", promoted.ID))
	return promoted, nil
}
