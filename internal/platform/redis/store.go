// Package redis provides the shared cache backend used when several
// API replicas must agree on revocations and invalidations.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/cache"
	goredis "github.com/redis/go-redis/v9"
)

// pingTimeout bounds the connectivity check performed by Open.
const pingTimeout = 5 * time.Second

// Store implements cache.Store on top of a Redis client.
type Store struct {
	client goredis.UniversalClient
}

var _ cache.Store = (*Store)(nil)

// NewStore wraps an existing client.
func NewStore(client goredis.UniversalClient) *Store {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("redis client cannot be nil")
	}
	return &Store{client: client}
}

// Open parses url, connects and verifies the server answers PING.
func Open(ctx context.Context, url string, logger *slog.Logger) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: failed to ping redis at %s: %v", cache.ErrUnavailable, opts.Addr, err)
	}

	if logger != nil {
		logger.Info("redis connection established",
			slog.String("addr", opts.Addr),
			slog.Int("db", opts.DB))
	}
	return NewStore(client), nil
}

// Get implements cache.Store.Get.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, cache.ErrMiss
		}
		return nil, wrap("get", key, err)
	}
	return value, nil
}

// Set implements cache.Store.Set. A ttl <= 0 stores the key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return wrap("set", key, err)
	}
	return nil
}

// Delete implements cache.Store.Delete.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return wrap("delete", key, err)
	}
	return nil
}

// Incr implements cache.Store.Incr.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, wrap("incr", key, err)
	}
	return n, nil
}

// Ping checks that the server answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrap("ping", "", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func wrap(op, key string, err error) error {
	return fmt.Errorf("%w: redis %s %s: %v", cache.ErrUnavailable, op, key, err)
}
