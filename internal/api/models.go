package api

import (
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account. It never carries the password hash.
type UserResponse struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	// AccessToken is the JWT used for API authorization
	AccessToken string `json:"access_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`

	// ExpiresAt is the RFC 3339 timestamp when the access token expires
	ExpiresAt time.Time `json:"expires_at"`

	User UserResponse `json:"user"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateTaskRequest defines the payload for creating a task.
// Status and priority default to pending and medium.
type CreateTaskRequest struct {
	Title       string              `json:"title"       validate:"required,max=255,safetext"`
	Description *string             `json:"description" validate:"omitempty,max=2000,safetext"`
	Status      domain.TaskStatus   `json:"status"      validate:"omitempty,oneof=pending in_progress completed"`
	Priority    domain.TaskPriority `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

// UpdateTaskRequest defines the payload for a partial task update.
// Absent fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"       validate:"omitempty,min=1,max=255,safetext"`
	Description *string              `json:"description" validate:"omitempty,max=2000,safetext"`
	Status      *domain.TaskStatus   `json:"status"      validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *domain.TaskPriority `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"user_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.TaskPriority `json:"priority"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// StatsResponse defines the admin statistics payload.
type StatsResponse struct {
	TotalUsers     int64 `json:"total_users"`
	TotalTasks     int64 `json:"total_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	AdminID        int64 `json:"admin_id"`
	Cached         bool  `json:"cached"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func loginToResponse(res *service.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.Token,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt.UTC(),
		User:        userToResponse(res.User),
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponse(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskToResponse(&tasks[i]))
	}
	return out
}

func statsToResponse(s *domain.Stats) StatsResponse {
	return StatsResponse{
		TotalUsers:     s.TotalUsers,
		TotalTasks:     s.TotalTasks,
		CompletedTasks: s.CompletedTasks,
		AdminID:        s.AdminID,
		Cached:         s.Cached,
	}
}

func (r UpdateTaskRequest) toPatch() domain.TaskPatch {
	return domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
	}
}
