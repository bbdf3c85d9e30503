package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/cache"
)

// MockCacheStore implements cache.Store for testing.
// Calls without an override are forwarded to Backend, so a test can fail
// one operation while the rest behave normally.
type MockCacheStore struct {
	GetFn    func(ctx context.Context, key string) ([]byte, error)
	SetFn    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFn func(ctx context.Context, key string) error
	IncrFn   func(ctx context.Context, key string) (int64, error)

	Backend cache.Store
}

var _ cache.Store = (*MockCacheStore)(nil)

// NewMockCacheStore wraps an in-memory backend.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{Backend: cache.NewMemoryStore(0)}
}

// Get implements the cache.Store interface
func (m *MockCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return m.Backend.Get(ctx, key)
}

// Set implements the cache.Store interface
func (m *MockCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, value, ttl)
	}
	return m.Backend.Set(ctx, key, value, ttl)
}

// Delete implements the cache.Store interface
func (m *MockCacheStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return m.Backend.Delete(ctx, key)
}

// Incr implements the cache.Store interface
func (m *MockCacheStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.IncrFn != nil {
		return m.IncrFn(ctx, key)
	}
	return m.Backend.Incr(ctx, key)
}
