package mocks

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// MockUserStore implements store.UserStore for testing.
// Without function overrides it behaves like an in-memory table keyed by
// username with unique usernames and emails.
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn                  func(ctx context.Context, user *domain.User) error
	GetByIDFn                 func(ctx context.Context, id int64) (*domain.User, error)
	GetByUsernameFn           func(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsernameOrEmailFn func(ctx context.Context, username, email string) (bool, error)
	SetRoleFn                 func(ctx context.Context, username string, role domain.Role) (*domain.User, error)

	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int64

	// GetByUsernameCalls counts GetByUsername invocations, default or not.
	GetByUsernameCalls int
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[string]*domain.User),
	}
}

// Add inserts user directly, assigning an ID when it has none.
func (m *MockUserStore) Add(user *domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertLocked(user)
	return user
}

func (m *MockUserStore) insertLocked(user *domain.User) {
	if user.ID == 0 {
		m.nextID++
		user.ID = m.nextID
	} else if user.ID > m.nextID {
		m.nextID = user.ID
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Password = ""

	stored := *user
	m.users[user.Username] = &stored
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Username]; exists {
		return store.ErrUsernameExists
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}

	m.insertLocked(user)
	return nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByUsername implements the UserStore interface
func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	m.GetByUsernameCalls++
	m.mu.Unlock()

	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

// ExistsByUsernameOrEmail implements the UserStore interface
func (m *MockUserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.ExistsByUsernameOrEmailFn != nil {
		return m.ExistsByUsernameOrEmailFn(ctx, username, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// SetRole implements the UserStore interface
func (m *MockUserStore) SetRole(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	if m.SetRoleFn != nil {
		return m.SetRoleFn(ctx, username, role)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	updated := *u
	return &updated, nil
}

// SetActive flips a stored user's active flag, standing in for an
// out-of-band account change.
func (m *MockUserStore) SetActive(username string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[username]; ok {
		u.IsActive = active
	}
}

// Count returns the number of stored users.
func (m *MockUserStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// WithTx implements the UserStore interface; the mock ignores transactions.
func (m *MockUserStore) WithTx(_ *sql.Tx) store.UserStore {
	return m
}
