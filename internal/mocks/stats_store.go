package mocks

import (
	"context"

	"github.com/phrazzld/tasktrack-api/internal/store"
)

// MockStatsStore implements store.StatsStore for testing.
// When Users and Tasks are set, the default Totals counts their contents.
type MockStatsStore struct {
	TotalsFn func(ctx context.Context) (store.Totals, error)

	Users *MockUserStore
	Tasks *MockTaskStore
	Err   error

	// Calls counts Totals invocations.
	Calls int
}

var _ store.StatsStore = (*MockStatsStore)(nil)

// Totals implements the StatsStore interface
func (m *MockStatsStore) Totals(ctx context.Context) (store.Totals, error) {
	m.Calls++

	if m.TotalsFn != nil {
		return m.TotalsFn(ctx)
	}
	if m.Err != nil {
		return store.Totals{}, m.Err
	}

	var totals store.Totals
	if m.Users != nil {
		totals.Users = int64(m.Users.Count())
	}
	if m.Tasks != nil {
		totals.Tasks, totals.CompletedTasks = m.Tasks.Counts()
	}
	return totals, nil
}
