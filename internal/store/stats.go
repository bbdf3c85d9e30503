package store

import (
	"context"
)

// Totals is a snapshot of row counts across the whole database.
type Totals struct {
	Users          int64
	Tasks          int64
	CompletedTasks int64
}

// StatsStore computes aggregate counts for administrators.
type StatsStore interface {
	// Totals counts users, tasks and completed tasks.
	Totals(ctx context.Context) (Totals, error)
}
