package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Every read and write is scoped to an owner: a task belonging to another
// user behaves exactly like a task that does not exist.
type TaskStore interface {
	// Create inserts a new task and fills in the generated ID and timestamps.
	Create(ctx context.Context, task *domain.Task) error

	// ListByOwner returns a page of the owner's tasks, newest first.
	// An owner with no tasks yields an empty, non-nil slice.
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Task, error)

	// GetForOwner retrieves one task by ID.
	// Returns ErrTaskNotFound if it does not exist or belongs to someone else.
	GetForOwner(ctx context.Context, ownerID, taskID int64) (*domain.Task, error)

	// Update applies a non-empty patch, bumps updated_at and returns the new row.
	// Returns ErrTaskNotFound if it does not exist or belongs to someone else.
	Update(ctx context.Context, ownerID, taskID int64, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes a task.
	// Returns ErrTaskNotFound if it does not exist or belongs to someone else.
	Delete(ctx context.Context, ownerID, taskID int64) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
