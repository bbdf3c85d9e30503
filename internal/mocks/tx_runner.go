package mocks

import (
	"context"

	"github.com/phrazzld/tasktrack-api/internal/store"
)

// MockTxRunner implements store.TxRunner without a database. The function
// runs with a nil *sql.Tx, which the mock stores ignore.
type MockTxRunner struct {
	// Err, when set, is returned instead of running the function.
	Err   error
	Calls int
}

var _ store.TxRunner = (*MockTxRunner)(nil)

// RunInTransaction implements the store.TxRunner interface
func (m *MockTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, nil)
}
