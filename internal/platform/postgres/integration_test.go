//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/postgres"
	"github.com/phrazzld/tasktrack-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB is shared by every integration test in this package.
var testDB *sql.DB

func TestMain(m *testing.M) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("DATABASE_URL not set, skipping postgres integration tests")
		os.Exit(0)
	}

	ctx := context.Background()
	logger := slog.Default()

	var err error
	testDB, err = postgres.Open(ctx, config.DatabaseConfig{
		URL:                    dbURL,
		MaxOpenConns:           5,
		MaxIdleConns:           5,
		ConnMaxLifetimeMinutes: 5,
	}, logger)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}

	if err := postgres.Migrate(ctx, testDB, postgres.MigrateUp, logger); err != nil {
		fmt.Printf("Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = testDB.Close()
	os.Exit(code)
}

// withTx runs fn inside a transaction that is always rolled back.
func withTx(t *testing.T, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := testDB.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	fn(tx)
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano()%1_000_000_000)
}

func createUser(t *testing.T, users store.UserStore, name string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:       name,
		Email:          name + "@example.com",
		HashedPassword: "$2a$10$placeholder",
		Role:           domain.RoleUser,
		IsActive:       true,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestIntegrationUserStore(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		users := postgres.NewPostgresUserStore(tx, nil)
		name := uniqueName("alice")

		user := createUser(t, users, name)
		assert.Positive(t, user.ID)

		exists, err := users.ExistsByUsernameOrEmail(ctx, name, "nobody@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		fetched, err := users.GetByUsername(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, user.ID, fetched.ID)

		promoted, err := users.SetRole(ctx, name, domain.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, promoted.Role)
	})
}

func TestIntegrationUserStoreDuplicate(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		users := postgres.NewPostgresUserStore(tx, nil)
		name := uniqueName("dup")
		createUser(t, users, name)

		err := users.Create(context.Background(), &domain.User{
			Username:       name,
			Email:          "other_" + name + "@example.com",
			HashedPassword: "x",
			Role:           domain.RoleUser,
		})
		assert.ErrorIs(t, err, store.ErrUsernameExists)
	})
}

func TestIntegrationTaskStoreOwnership(t *testing.T) {
	withTx(t, func(tx *sql.Tx) {
		ctx := context.Background()
		users := postgres.NewPostgresUserStore(tx, nil)
		tasks := postgres.NewPostgresTaskStore(tx, nil)

		owner := createUser(t, users, uniqueName("owner"))
		other := createUser(t, users, uniqueName("other"))

		task, err := domain.NewTask(owner.ID, "A", nil, "", "")
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))
		assert.Equal(t, domain.TaskStatusPending, task.Status)

		_, err = tasks.GetForOwner(ctx, other.ID, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		status := domain.TaskStatusCompleted
		_, err = tasks.Update(ctx, other.ID, task.ID, domain.TaskPatch{Status: &status})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t, tasks.Delete(ctx, other.ID, task.ID), store.ErrTaskNotFound)

		updated, err := tasks.Update(ctx, owner.ID, task.ID, domain.TaskPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, updated.Status)

		page, err := tasks.ListByOwner(ctx, owner.ID, 0, 50)
		require.NoError(t, err)
		require.Len(t, page, 1)

		require.NoError(t, tasks.Delete(ctx, owner.ID, task.ID))
		page, err = tasks.ListByOwner(ctx, owner.ID, 0, 50)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
