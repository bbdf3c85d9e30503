// Package main implements the entry point for the task management API server,
// which serves owner-scoped task CRUD behind JWT authentication.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/spf13/pflag"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

// cliOptions holds the command-line flags.
type cliOptions struct {
	migrate string
}

func parseFlags(args []string) (cliOptions, error) {
	var opts cliOptions

	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version) and exit")
	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	return opts, nil
}

// main is the entry point for the server. It loads configuration, sets up
// logging, connects to the database and cache, and serves HTTP until
// interrupted. With --migrate it runs the migration command instead.
func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts cliOptions) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if opts.migrate != "" {
		return handleMigrations(ctx, db, opts.migrate, logger)
	}
	if cfg.Database.AutoMigrate {
		if err := handleMigrations(ctx, db, "up", logger); err != nil {
			return err
		}
	}

	backend, err := setupCacheBackend(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, logger, postgresDependencies(db, logger, backend))
	if err != nil {
		_ = backend.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}

// loadAppConfig loads the application configuration from environment variables or config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
