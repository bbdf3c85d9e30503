package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the StatsStore interface.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

var _ store.StatsStore = (*PostgresStatsStore)(nil)

// Totals implements store.StatsStore.Totals
func (s *PostgresStatsStore) Totals(ctx context.Context) (store.Totals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM tasks WHERE status = 'completed')
	`

	var totals store.Totals
	err := s.db.QueryRowContext(ctx, query).Scan(&totals.Users, &totals.Tasks, &totals.CompletedTasks)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute totals",
			slog.String("error", err.Error()))
		return store.Totals{}, store.NewStoreError("stats", "totals", "query failed", MapError(err))
	}
	return totals, nil
}
