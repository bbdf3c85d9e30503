package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
)

// IdentityCache maps a username to its cached identity record.
// Writes overwrite, so the last populate wins.
type IdentityCache struct {
	store  Store
	logger *slog.Logger
}

// NewIdentityCache creates an IdentityCache over store.
func NewIdentityCache(store Store, logger *slog.Logger) *IdentityCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdentityCache{
		store:  store,
		logger: logger.With(slog.String("component", "identity_cache")),
	}
}

// IdentityKey returns the cache key for username.
func IdentityKey(username string) string {
	return "user:" + username
}

// Lookup returns the cached identity or ErrMiss.
func (c *IdentityCache) Lookup(ctx context.Context, username string) (*domain.Identity, error) {
	identity, err := getJSON[domain.Identity](ctx, c.store, IdentityKey(username))
	if err != nil {
		if errors.Is(err, errCorrupt) {
			logger.FromContextOrDefault(ctx, c.logger).Warn("discarding corrupt identity entry",
				slog.String("username", username),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("cache_hit",
		slog.String("cache", "identity"),
		slog.String("username", username))
	return &identity, nil
}

// Populate stores identity under username for ttl.
func (c *IdentityCache) Populate(
	ctx context.Context,
	username string,
	identity domain.Identity,
	ttl time.Duration,
) error {
	if err := setJSON(ctx, c.store, IdentityKey(username), identity, ttl); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("cache_set",
		slog.String("cache", "identity"),
		slog.String("username", username),
		slog.Duration("ttl", ttl))
	return nil
}

// Invalidate removes the cached identity for username.
func (c *IdentityCache) Invalidate(ctx context.Context, username string) error {
	return c.store.Delete(ctx, IdentityKey(username))
}
