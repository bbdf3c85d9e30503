package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
// Without function overrides it keeps tasks in memory with the same
// ordering and owner scoping as the Postgres store.
type MockTaskStore struct {
	CreateFn      func(ctx context.Context, task *domain.Task) error
	ListByOwnerFn func(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Task, error)
	GetForOwnerFn func(ctx context.Context, ownerID, taskID int64) (*domain.Task, error)
	UpdateFn      func(ctx context.Context, ownerID, taskID int64, patch domain.TaskPatch) (*domain.Task, error)
	DeleteFn      func(ctx context.Context, ownerID, taskID int64) error

	mu     sync.Mutex
	tasks  map[int64]*domain.Task
	nextID int64

	// ListCalls counts ListByOwner invocations, letting tests tell a cache
	// hit from a store read.
	ListCalls int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[int64]*domain.Task)}
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	task.ID = m.nextID
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

// ListByOwner implements the TaskStore interface
func (m *MockTaskStore) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]domain.Task, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID, offset, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	owned := make([]domain.Task, 0)
	for _, t := range m.tasks {
		if t.UserID == ownerID {
			owned = append(owned, *t)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	if offset >= len(owned) {
		return []domain.Task{}, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], nil
}

// GetForOwner implements the TaskStore interface
func (m *MockTaskStore) GetForOwner(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	if m.GetForOwnerFn != nil {
		return m.GetForOwnerFn(ctx, ownerID, taskID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	found := *t
	return &found, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(
	ctx context.Context,
	ownerID, taskID int64,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ownerID, taskID, patch)
	}
	if patch.IsEmpty() {
		return nil, store.ErrInvalidEntity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		desc := *patch.Description
		t.Description = &desc
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	t.UpdatedAt = time.Now().UTC()

	updated := *t
	return &updated, nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, ownerID, taskID int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, taskID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[taskID]
	if !ok || t.UserID != ownerID {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

// DeleteOwner drops every task of ownerID, mirroring ON DELETE CASCADE.
func (m *MockTaskStore) DeleteOwner(ownerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.tasks {
		if t.UserID == ownerID {
			delete(m.tasks, id)
		}
	}
}

// Counts returns the total and completed task counts.
func (m *MockTaskStore) Counts() (total, completed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tasks {
		total++
		if t.Status == domain.TaskStatusCompleted {
			completed++
		}
	}
	return total, completed
}

// WithTx implements the TaskStore interface; the mock ignores transactions.
func (m *MockTaskStore) WithTx(_ *sql.Tx) store.TaskStore {
	return m
}
