package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMiss is returned when a key is absent or expired. It is an expected
	// outcome, never a failure.
	ErrMiss = errors.New("cache miss")

	// ErrUnavailable is returned when the cache backend cannot be reached.
	ErrUnavailable = errors.New("cache unavailable")

	// errCorrupt marks a miss caused by an undecodable payload.
	errCorrupt = errors.New("corrupt payload")
)

// Store is the key/value contract every cache backend implements.
type Store interface {
	// Get returns the value for key or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl <= 0 keeps the key until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Incr atomically increments the integer stored at key, treating a
	// missing key as 0, and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
}

// getJSON loads and decodes key. A payload that does not decode is reported
// as ErrMiss so the caller repopulates it.
func getJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var zero T

	raw, err := s.Get(ctx, key)
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("%w: %w at %s: %v", ErrMiss, errCorrupt, key, err)
	}
	return v, nil
}

func setJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
