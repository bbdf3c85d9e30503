package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "TASKTRACK"

// devJWTSecret is only ever used outside production.
const devJWTSecret = "dev-secret-key-unsafe-do-not-use-in-production"

// ErrMissingJWTSecret is returned when a production deployment has no signing key.
var ErrMissingJWTSecret = errors.New("auth.jwt_secret must be set in production")

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files, and a
// .env file in the working directory (if present) seeds the environment first.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound explicitly.
	for _, key := range []string{"database.url", "auth.jwt_secret", "cache.redis_url"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applySecretPolicy(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// applySecretPolicy fails fast when production runs without a signing key and
// fills in the development key everywhere else.
func applySecretPolicy(cfg *Config) error {
	if cfg.Auth.JWTSecret != "" {
		return nil
	}
	if cfg.Server.IsProduction() {
		return ErrMissingJWTSecret
	}
	cfg.Auth.JWTSecret = devJWTSecret
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.trust_proxy_headers", false)

	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime_minutes", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.user_ttl_seconds", 300)
	v.SetDefault("cache.tasks_ttl_seconds", 60)
	v.SetDefault("cache.stats_ttl_seconds", 300)

	v.SetDefault("auth.token_lifetime_minutes", 30)
	v.SetDefault("auth.clock_skew_seconds", 0)
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.auth_per_minute", 5)
	v.SetDefault("rate_limit.tasks_per_minute", 50)
	v.SetDefault("rate_limit.general_per_minute", 100)
}
