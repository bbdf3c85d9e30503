package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "resolver-test-secret-that-is-32-chars-or-more"

type resolverFixture struct {
	resolver   *auth.Resolver
	jwt        auth.JWTService
	users      *mocks.MockUserStore
	cacheStore *mocks.MockCacheStore
	identities *cache.IdentityCache
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	users := mocks.NewMockUserStore()
	users.Add(&domain.User{
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "x",
		Role:           domain.RoleUser,
		IsActive:       true,
	})

	cacheStore := mocks.NewMockCacheStore()
	identities := cache.NewIdentityCache(cacheStore, nil)

	resolver := auth.NewResolver(auth.ResolverConfig{
		JWT:         jwtService,
		Users:       users,
		Revocations: cache.NewRevocationRegistry(cacheStore),
		Identities:  identities,
		IdentityTTL: 5 * time.Minute,
	})

	return &resolverFixture{
		resolver:   resolver,
		jwt:        jwtService,
		users:      users,
		cacheStore: cacheStore,
		identities: identities,
	}
}

func (f *resolverFixture) token(t *testing.T, subject string, ttl time.Duration) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(context.Background(), subject, domain.RoleUser, ttl)
	require.NoError(t, err)
	return token
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("valid token resolves and populates the cache", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		ctx := context.Background()

		session, err := f.resolver.Resolve(ctx, f.token(t, "alice", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "alice", session.Identity.Username)
		assert.Equal(t, domain.RoleUser, session.Identity.Role)
		assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

		cached, err := f.identities.Lookup(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, session.Identity, *cached)

		_, err = f.resolver.Resolve(ctx, f.token(t, "alice", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, f.users.GetByUsernameCalls, "second request is served from the cache")
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		_, err := f.resolver.Resolve(context.Background(), "")
		assert.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		_, err := f.resolver.Resolve(context.Background(), "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		_, err := f.resolver.Resolve(context.Background(), f.token(t, "alice", -time.Minute))
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("empty subject", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		_, err := f.resolver.Resolve(context.Background(), f.token(t, "", time.Hour))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("unknown subject", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		_, err := f.resolver.Resolve(context.Background(), f.token(t, "ghost", time.Hour))
		assert.ErrorIs(t, err, auth.ErrUnknownSubject)
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		f.users.SetActive("alice", false)
		_, err := f.resolver.Resolve(context.Background(), f.token(t, "alice", time.Hour))
		assert.ErrorIs(t, err, auth.ErrInactiveAccount)
	})

	t.Run("store outage is not unauthenticated", func(t *testing.T) {
		t.Parallel()
		f := newResolverFixture(t)
		f.users.GetByUsernameFn = func(context.Context, string) (*domain.User, error) {
			return nil, store.ErrUnavailable
		}
		_, err := f.resolver.Resolve(context.Background(), f.token(t, "alice", time.Hour))
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.False(t, auth.IsUnauthenticated(err))
	})
}

func TestResolveRevocationFailsClosed(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	token := f.token(t, "alice", time.Hour)

	f.cacheStore.GetFn = func(ctx context.Context, key string) ([]byte, error) {
		if key == cache.RevocationKey(token) {
			return nil, errors.New("connection refused")
		}
		return f.cacheStore.Backend.Get(ctx, key)
	}

	session, err := f.resolver.Resolve(context.Background(), token)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestResolveIdentityCacheFailsOpen(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	token := f.token(t, "alice", time.Hour)

	f.cacheStore.GetFn = func(ctx context.Context, key string) ([]byte, error) {
		if key == cache.IdentityKey("alice") {
			return nil, cache.ErrUnavailable
		}
		return f.cacheStore.Backend.Get(ctx, key)
	}
	f.cacheStore.SetFn = func(context.Context, string, []byte, time.Duration) error {
		return cache.ErrUnavailable
	}

	session, err := f.resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Identity.Username)
}

func TestResolveCorruptIdentityIsRepopulated(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cacheStore.Set(ctx, cache.IdentityKey("alice"), []byte("not json"), time.Minute))

	_, err := f.resolver.Resolve(ctx, f.token(t, "alice", time.Hour))
	require.NoError(t, err)

	cached, err := f.identities.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", cached.Username)
}

func TestResolveSharesConcurrentMisses(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	token := f.token(t, "alice", time.Hour)

	var reads atomic.Int32
	release := make(chan struct{})
	f.users.GetByUsernameFn = func(context.Context, string) (*domain.User, error) {
		reads.Add(1)
		<-release
		return &domain.User{ID: 1, Username: "alice", Role: domain.RoleUser, IsActive: true}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.resolver.Resolve(context.Background(), token)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return reads.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, reads.Load(), int32(callers))
	assert.GreaterOrEqual(t, reads.Load(), int32(1))
}

func TestResolveSharedMissSurvivesCallerCancellation(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	token := f.token(t, "alice", time.Hour)

	var reads atomic.Int32
	release := make(chan struct{})
	f.users.GetByUsernameFn = func(ctx context.Context, _ string) (*domain.User, error) {
		reads.Add(1)
		select {
		case <-release:
			return &domain.User{ID: 1, Username: "alice", Role: domain.RoleUser, IsActive: true}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.resolver.Resolve(firstCtx, token)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return reads.Load() >= 1 }, time.Second, time.Millisecond)

	secondErr := make(chan error, 1)
	go func() {
		_, err := f.resolver.Resolve(context.Background(), token)
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled, "the canceled caller stops waiting")
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case err := <-secondErr:
		assert.NoError(t, err, "a live caller must not inherit another caller's cancellation")
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}

	identity, err := f.identities.Lookup(context.Background(), "alice")
	require.NoError(t, err, "the shared read still populates the cache")
	assert.Equal(t, int64(1), identity.ID)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	ctx := context.Background()
	token := f.token(t, "alice", time.Hour)

	session, err := f.resolver.Resolve(ctx, token)
	require.NoError(t, err)

	require.NoError(t, f.resolver.Logout(ctx, session))

	_, err = f.identities.Lookup(ctx, "alice")
	assert.ErrorIs(t, err, cache.ErrMiss, "logout drops the cached identity")

	_, err = f.resolver.Resolve(ctx, token)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)

	other, err := f.resolver.Resolve(ctx, f.token(t, "alice", time.Hour))
	require.NoError(t, err, "other tokens of the same user stay valid")
	assert.Equal(t, "alice", other.Identity.Username)
}

func TestLogoutRevocationFailure(t *testing.T) {
	t.Parallel()

	f := newResolverFixture(t)
	ctx := context.Background()

	session, err := f.resolver.Resolve(ctx, f.token(t, "alice", time.Hour))
	require.NoError(t, err)

	f.cacheStore.SetFn = func(context.Context, string, []byte, time.Duration) error {
		return cache.ErrUnavailable
	}
	err = f.resolver.Logout(ctx, session)
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	assert.NoError(t, auth.RequireAdmin(domain.Identity{Role: domain.RoleAdmin}))
	assert.ErrorIs(t, auth.RequireAdmin(domain.Identity{Role: domain.RoleUser}), auth.ErrAdminRequired)
}
