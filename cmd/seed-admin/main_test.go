package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeeder(t *testing.T) (*adminSeeder, *mocks.MockUserStore, *cache.MemoryStore) {
	t.Helper()

	_, log := logger.NewTestLogger()
	users := mocks.NewMockUserStore()
	backend := cache.NewMemoryStore(0)

	return &adminSeeder{
		users:      users,
		hasher:     &mocks.MockPasswordHasher{},
		identities: cache.NewIdentityCache(backend, log),
		logger:     log,
	}, users, backend
}

func TestSeedCreatesAdministrator(t *testing.T) {
	t.Parallel()
	seeder, users, _ := newSeeder(t)

	user, err := seeder.Seed(context.Background(), options{
		username: "Admin",
		email:    "Admin@Example.com",
		password: "Admin123",
	})
	require.NoError(t, err)

	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "hashed:Admin123", user.HashedPassword)
	assert.Empty(t, user.Password)

	stored, err := users.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, stored.Role)
}

func TestSeedPromotesExistingUser(t *testing.T) {
	t.Parallel()
	seeder, users, backend := newSeeder(t)
	ctx := context.Background()

	users.Add(&domain.User{
		Username:       "alice",
		Email:          "alice@x.com",
		HashedPassword: "hashed:Passw0rd",
		Role:           domain.RoleUser,
		IsActive:       true,
	})
	require.NoError(t, seeder.identities.Populate(ctx, "alice", domain.Identity{
		Username: "alice",
		Role:     domain.RoleUser,
		IsActive: true,
	}, time.Minute))

	user, err := seeder.Seed(ctx, options{username: "alice", email: "ignored@x.com", password: "Other123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.Equal(t, "hashed:Passw0rd", user.HashedPassword, "existing password is kept")
	assert.Equal(t, 1, users.Count())

	_, err = backend.Get(ctx, cache.IdentityKey("alice"))
	assert.ErrorIs(t, err, cache.ErrMiss, "stale identity must be dropped")
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()
	seeder, users, _ := newSeeder(t)
	opts := options{username: "admin", email: "admin@example.com", password: "Admin123"}

	first, err := seeder.Seed(context.Background(), opts)
	require.NoError(t, err)
	second, err := seeder.Seed(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, users.Count())
}

func TestSeedRejectsWeakPassword(t *testing.T) {
	t.Parallel()
	seeder, users, _ := newSeeder(t)

	_, err := seeder.Seed(context.Background(), options{username: "admin", email: "admin@example.com", password: "admin"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, users.Count())
}

func TestSeedStoreFailure(t *testing.T) {
	t.Parallel()
	seeder, users, _ := newSeeder(t)
	users.GetByUsernameFn = func(context.Context, string) (*domain.User, error) {
		return nil, store.ErrUnavailable
	}

	_, err := seeder.Seed(context.Background(), options{username: "admin", email: "admin@example.com", password: "Admin123"})
	assert.True(t, errors.Is(err, store.ErrUnavailable))
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, options{username: "admin", email: "admin@example.com", password: "Admin123"}, opts)

	opts, err = parseFlags([]string{"--username", "root", "--password=Secret123"})
	require.NoError(t, err)
	assert.Equal(t, "root", opts.username)
	assert.Equal(t, "Secret123", opts.password)
}
