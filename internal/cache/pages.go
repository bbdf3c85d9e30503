package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
)

// PageKey identifies one cached page of an owner's task listing.
// The generation pins the snapshot to the owner's state when the key was taken.
type PageKey struct {
	Owner      int64
	Generation int64
	Offset     int
	Limit      int
}

// String renders the backend key.
func (k PageKey) String() string {
	return fmt.Sprintf("tasks:%d:g%d:page:%d:%d", k.Owner, k.Generation, k.Offset, k.Limit)
}

// GenerationKey returns the key holding owner's page generation counter.
func GenerationKey(owner int64) string {
	return fmt.Sprintf("tasks:%d:gen", owner)
}

// TaskPageCache caches paginated task listings per owner.
//
// Pages are never deleted individually. InvalidateAll bumps the owner's
// generation, which moves every future key to a fresh namespace; pages under
// older generations are unreachable and expire on their own TTL. A page read
// before a mutation and written after it lands under the old generation, so
// it can never be served.
type TaskPageCache struct {
	store  Store
	logger *slog.Logger
}

// NewTaskPageCache creates a TaskPageCache over store.
func NewTaskPageCache(store Store, logger *slog.Logger) *TaskPageCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskPageCache{
		store:  store,
		logger: logger.With(slog.String("component", "task_page_cache")),
	}
}

// Key resolves the owner's current generation and returns the page key.
func (c *TaskPageCache) Key(ctx context.Context, owner int64, offset, limit int) (PageKey, error) {
	key := PageKey{Owner: owner, Offset: offset, Limit: limit}

	raw, err := c.store.Get(ctx, GenerationKey(owner))
	switch {
	case errors.Is(err, ErrMiss):
		return key, nil
	case err != nil:
		return PageKey{}, err
	}

	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return PageKey{}, fmt.Errorf("corrupt generation for owner %d: %w", owner, err)
	}
	key.Generation = gen
	return key, nil
}

// Lookup returns the cached page for key or ErrMiss.
func (c *TaskPageCache) Lookup(ctx context.Context, key PageKey) ([]domain.Task, error) {
	page, err := getJSON[[]domain.Task](ctx, c.store, key.String())
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("cache_hit",
		slog.String("cache", "tasks"),
		slog.String("key", key.String()),
		slog.Int("count", len(page)))
	return page, nil
}

// Populate stores page under key for ttl. Empty pages are cached too.
func (c *TaskPageCache) Populate(ctx context.Context, key PageKey, page []domain.Task, ttl time.Duration) error {
	if page == nil {
		page = []domain.Task{}
	}
	if err := setJSON(ctx, c.store, key.String(), page, ttl); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("cache_set",
		slog.String("cache", "tasks"),
		slog.String("key", key.String()),
		slog.Int("count", len(page)),
		slog.Duration("ttl", ttl))
	return nil
}

// InvalidateAll makes every cached page for owner unreachable.
func (c *TaskPageCache) InvalidateAll(ctx context.Context, owner int64) error {
	gen, err := c.store.Incr(ctx, GenerationKey(owner))
	if err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, c.logger).Debug("task pages invalidated",
		slog.Int64("user_id", owner),
		slog.Int64("generation", gen))
	return nil
}
