package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeClock is a manually advanced clock for MemoryStore tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// downStore fails every call the way an unreachable backend would.
type downStore struct{}

var errDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (downStore) Get(context.Context, string) ([]byte, error) { return nil, errDown }

func (downStore) Set(context.Context, string, []byte, time.Duration) error { return errDown }

func (downStore) Delete(context.Context, string) error { return errDown }

func (downStore) Incr(context.Context, string) (int64, error) { return 0, errDown }
