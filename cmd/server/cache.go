package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/api"
	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/platform/redis"
)

// cacheBackend is the shared key-value store behind every cache, plus its
// health probe. Probe is nil for the in-process backend.
type cacheBackend struct {
	cache.Store
	Probe api.HealthCheck
	close func() error
}

// Close releases the backend.
func (b cacheBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// setupCacheBackend builds the configured cache backend. The memory backend
// is private to this process; run more than one replica only with redis.
func setupCacheBackend(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cacheBackend, error) {
	switch cfg.Backend {
	case config.CacheBackendRedis:
		store, err := redis.Open(ctx, cfg.RedisURL, logger)
		if err != nil {
			return cacheBackend{}, fmt.Errorf("failed to set up cache: %w", err)
		}
		return cacheBackend{Store: store, Probe: store.Ping, close: store.Close}, nil

	case config.CacheBackendMemory, "":
		store := cache.NewMemoryStore(cache.DefaultPurgeInterval)
		logger.Info("using in-process cache backend")
		return cacheBackend{Store: store, close: store.Close}, nil

	default:
		return cacheBackend{}, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
