package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewMemoryStore(0, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("v"), 0))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	clock.Advance(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "entry expires exactly at its deadline")

	_, err = s.Get(ctx, "forever")
	assert.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	s.Purge()
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(0)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStoreDeleteMissingKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(0)
	assert.NoError(t, s.Delete(context.Background(), "nope"))
}

func TestMemoryStoreIncr(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewMemoryStore(0, WithClock(clock.Now))
	ctx := context.Background()

	n, err := s.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Set(ctx, "text", []byte("abc"), 0))
	_, err = s.Incr(ctx, "text")
	assert.Error(t, err)

	require.NoError(t, s.Set(ctx, "short", []byte("41"), time.Second))
	clock.Advance(2 * time.Second)
	n, err = s.Incr(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "an expired counter restarts from zero")
}

func TestMemoryStoreConcurrentIncr(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Incr(ctx, "gen")
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, "50", string(got))
}

func TestMemoryStorePurgeLoop(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(10 * time.Millisecond)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)

	assert.NoError(t, s.Close(), "Close is idempotent")
}
