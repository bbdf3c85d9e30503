package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationRegistry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewMemoryStore(0, WithClock(clock.Now))
	r := NewRevocationRegistry(s)
	ctx := context.Background()

	revoked, err := r.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, "token-a", 10*time.Minute))

	revoked, err = r.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, revoked)

	clock.Advance(10 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked, "entries never outlive the token they deny")
	s.Purge()
	assert.Zero(t, s.Len())
}

func TestRevocationRegistryExpiredTokenIsNoop(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(0)
	r := NewRevocationRegistry(s)
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "dead", 0))
	require.NoError(t, r.Revoke(ctx, "dead", -time.Second))
	assert.Zero(t, s.Len())
}

func TestRevocationKeyHidesToken(t *testing.T) {
	t.Parallel()

	key := RevocationKey("header.payload.signature")
	assert.NotContains(t, key, "payload")
	assert.Len(t, key, len("revoked:")+64)
	assert.Equal(t, key, RevocationKey("header.payload.signature"))
}

func TestRevocationRegistryFailsClosed(t *testing.T) {
	t.Parallel()

	r := NewRevocationRegistry(downStore{})
	revoked, err := r.IsRevoked(context.Background(), "token")
	assert.False(t, revoked)
	assert.ErrorIs(t, err, ErrUnavailable)
}
