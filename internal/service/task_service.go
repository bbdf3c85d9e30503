package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/cache"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Pagination bounds for task listings.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// CreateTaskInput carries the fields of a new task. Empty status and
// priority take their defaults.
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

// TaskService provides owner-scoped task operations. A task owned by someone
// else is reported exactly like a missing one, as store.ErrTaskNotFound.
type TaskService interface {
	Create(ctx context.Context, owner int64, input CreateTaskInput) (*domain.Task, error)

	// List returns a page of the owner's tasks, newest first, reading through
	// the task page cache.
	List(ctx context.Context, owner int64, offset, limit int) ([]domain.Task, error)

	Get(ctx context.Context, owner, taskID int64) (*domain.Task, error)

	// Update applies patch. An empty patch returns the current task unchanged.
	Update(ctx context.Context, owner, taskID int64, patch domain.TaskPatch) (*domain.Task, error)

	Delete(ctx context.Context, owner, taskID int64) error

	// Stats returns the aggregate counts. Only administrators may call it.
	Stats(ctx context.Context, admin domain.Identity) (*domain.Stats, error)
}

// TaskServiceConfig holds the dependencies of a TaskService.
type TaskServiceConfig struct {
	Tasks    store.TaskStore
	Stats    store.StatsStore
	Pages    *cache.TaskPageCache
	StatsTTL time.Duration
	PageTTL  time.Duration

	StatsCache *cache.StatsCache
	Logger     *slog.Logger
}

type taskServiceImpl struct {
	tasks      store.TaskStore
	stats      store.StatsStore
	pages      *cache.TaskPageCache
	statsCache *cache.StatsCache
	pageTTL    time.Duration
	statsTTL   time.Duration
	logger     *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(cfg TaskServiceConfig) (TaskService, error) {
	switch {
	case cfg.Tasks == nil:
		return nil, errors.New("tasks cannot be nil")
	case cfg.Stats == nil:
		return nil, errors.New("stats cannot be nil")
	case cfg.Pages == nil:
		return nil, errors.New("page cache cannot be nil")
	case cfg.StatsCache == nil:
		return nil, errors.New("stats cache cannot be nil")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &taskServiceImpl{
		tasks:      cfg.Tasks,
		stats:      cfg.Stats,
		pages:      cfg.Pages,
		statsCache: cfg.StatsCache,
		pageTTL:    cfg.PageTTL,
		statsTTL:   cfg.StatsTTL,
		logger:     log.With(slog.String("component", "task_service")),
	}, nil
}

// ValidatePage checks listing bounds: offset >= 0 and 1 <= limit <= MaxPageLimit.
func ValidatePage(offset, limit int) error {
	if offset < 0 {
		return domain.NewValidationError("skip", "must be greater than or equal to 0")
	}
	if limit < 1 || limit > MaxPageLimit {
		return domain.NewValidationError("limit", "must be between 1 and 100")
	}
	return nil
}

// Create implements TaskService.
func (s *taskServiceImpl) Create(ctx context.Context, owner int64, input CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(owner, input.Title, input.Description, input.Status, input.Priority)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, s.storeError("create", err)
	}

	s.invalidate(ctx, owner)

	log.Info("task_created",
		slog.Int64("task_id", task.ID),
		slog.Int64("user_id", owner))
	return task, nil
}

// List implements TaskService.
func (s *taskServiceImpl) List(ctx context.Context, owner int64, offset, limit int) ([]domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ValidatePage(offset, limit); err != nil {
		return nil, err
	}

	key, keyErr := s.pages.Key(ctx, owner, offset, limit)
	if keyErr != nil {
		log.Warn("task page cache unavailable, reading store",
			slog.Int64("user_id", owner),
			slog.String("error", keyErr.Error()))
	} else {
		page, err := s.pages.Lookup(ctx, key)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("task page lookup failed",
				slog.String("key", key.String()),
				slog.String("error", err.Error()))
		}
	}

	page, err := s.tasks.ListByOwner(ctx, owner, offset, limit)
	if err != nil {
		return nil, s.storeError("list", err)
	}

	if keyErr == nil {
		if err := s.pages.Populate(ctx, key, page, s.pageTTL); err != nil {
			log.Warn("failed to populate task page cache",
				slog.String("key", key.String()),
				slog.String("error", err.Error()))
		}
	}
	return page, nil
}

// Get implements TaskService.
func (s *taskServiceImpl) Get(ctx context.Context, owner, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetForOwner(ctx, owner, taskID)
	if err != nil {
		return nil, s.storeError("get", err)
	}
	return task, nil
}

// Update implements TaskService.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	owner, taskID int64,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return s.Get(ctx, owner, taskID)
	}

	task, err := s.tasks.Update(ctx, owner, taskID, patch)
	if err != nil {
		return nil, s.storeError("update", err)
	}

	s.invalidate(ctx, owner)
	return task, nil
}

// Delete implements TaskService.
func (s *taskServiceImpl) Delete(ctx context.Context, owner, taskID int64) error {
	if err := s.tasks.Delete(ctx, owner, taskID); err != nil {
		return s.storeError("delete", err)
	}

	s.invalidate(ctx, owner)
	logger.FromContextOrDefault(ctx, s.logger).Info("task_deleted",
		slog.Int64("task_id", taskID),
		slog.Int64("user_id", owner))
	return nil
}

// Stats implements TaskService.
func (s *taskServiceImpl) Stats(ctx context.Context, admin domain.Identity) (*domain.Stats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := auth.RequireAdmin(admin); err != nil {
		return nil, err
	}

	cached, err := s.statsCache.Lookup(ctx)
	if err == nil {
		log.Info("cache_hit", slog.String("key", cache.StatsKey))
		cached.Cached = true
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Warn("stats cache lookup failed",
			slog.String("error", err.Error()))
	}

	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, s.storeError("stats", err)
	}

	stats := &domain.Stats{
		TotalUsers:     totals.Users,
		TotalTasks:     totals.Tasks,
		CompletedTasks: totals.CompletedTasks,
		AdminID:        admin.ID,
	}

	if err := s.statsCache.Populate(ctx, *stats, s.statsTTL); err != nil {
		log.Warn("failed to populate stats cache",
			slog.String("error", err.Error()))
	} else {
		log.Info("cache_set",
			slog.String("key", cache.StatsKey),
			slog.Duration("ttl", s.statsTTL))
	}
	return stats, nil
}

// invalidate drops the owner's cached pages after a committed write. A
// failure is logged only: the write has already happened and stale pages
// expire within the page TTL.
func (s *taskServiceImpl) invalidate(ctx context.Context, owner int64) {
	if err := s.pages.InvalidateAll(ctx, owner); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to invalidate task pages",
			slog.Int64("user_id", owner),
			slog.String("error", err.Error()))
	}
}

// storeError passes expected store conditions through unchanged and wraps
// everything else.
func (s *taskServiceImpl) storeError(op string, err error) error {
	if store.IsNotFoundError(err) || store.IsUnavailableError(err) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	return NewServiceError("task", op, "store operation failed", err)
}

var _ TaskService = (*taskServiceImpl)(nil)
