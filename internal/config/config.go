package config

import "time"

// Environment names accepted in ServerConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvProduction  = "production"
)

// Cache backends accepted in CacheConfig.Backend.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
// A Config is built once at startup by Load and must not be mutated afterwards.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"   validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"      validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	Environment            string `mapstructure:"environment"              validate:"required,oneof=development testing production"`
	RequestTimeoutSeconds  int    `mapstructure:"request_timeout_seconds"  validate:"gte=1"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites those headers;
	// otherwise clients can pick their own address and dodge rate limits.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// RequestTimeout returns the per-request deadline.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns how long graceful shutdown may take.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"                       validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=1"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// CacheConfig selects the cache backend and the lifetimes of cached projections.
type CacheConfig struct {
	Backend         string `mapstructure:"backend"           validate:"required,oneof=memory redis"`
	RedisURL        string `mapstructure:"redis_url"         validate:"required_if=Backend redis"`
	UserTTLSeconds  int    `mapstructure:"user_ttl_seconds"  validate:"gte=1"`
	TasksTTLSeconds int    `mapstructure:"tasks_ttl_seconds" validate:"gte=1"`
	StatsTTLSeconds int    `mapstructure:"stats_ttl_seconds" validate:"gte=1"`
}

// UserTTL is the lifetime of a cached identity record.
func (c CacheConfig) UserTTL() time.Duration {
	return time.Duration(c.UserTTLSeconds) * time.Second
}

// TasksTTL is the lifetime of a cached task page.
func (c CacheConfig) TasksTTL() time.Duration {
	return time.Duration(c.TasksTTLSeconds) * time.Second
}

// StatsTTL is the lifetime of the cached admin statistics.
func (c CacheConfig) StatsTTL() time.Duration {
	return time.Duration(c.StatsTTLSeconds) * time.Second
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=1440"`
	ClockSkewSeconds     int    `mapstructure:"clock_skew_seconds"     validate:"gte=0,lte=300"`
	BcryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
}

// TokenLifetime returns the access token lifetime.
func (c AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// ClockSkew returns the leeway applied when checking token time claims.
func (c AuthConfig) ClockSkew() time.Duration {
	return time.Duration(c.ClockSkewSeconds) * time.Second
}

// RateLimitConfig holds per-client request budgets, expressed per minute.
type RateLimitConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	AuthPerMinute    int  `mapstructure:"auth_per_minute"    validate:"gte=1"`
	TasksPerMinute   int  `mapstructure:"tasks_per_minute"   validate:"gte=1"`
	GeneralPerMinute int  `mapstructure:"general_per_minute" validate:"gte=1"`
}
