package cache

import (
	"context"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// StatsKey is the single key holding the admin statistics snapshot.
const StatsKey = "admin:stats"

// StatsCache caches the aggregate statistics shown to administrators.
type StatsCache struct {
	store Store
}

// NewStatsCache creates a StatsCache over store.
func NewStatsCache(store Store) *StatsCache {
	return &StatsCache{store: store}
}

// Lookup returns the cached snapshot or ErrMiss.
func (c *StatsCache) Lookup(ctx context.Context) (*domain.Stats, error) {
	stats, err := getJSON[domain.Stats](ctx, c.store, StatsKey)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Populate stores stats for ttl.
func (c *StatsCache) Populate(ctx context.Context, stats domain.Stats, ttl time.Duration) error {
	return setJSON(ctx, c.store, StatsKey, stats, ttl)
}
