package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// TaskView pairs a stored task with the status shown to its owner at read
// time. Status is Overdue for unfinished tasks past their deadline.
type TaskView struct {
	Task   *domain.Task
	Status domain.TaskStatus
}

// TaskService provides owner-scoped task management.
type TaskService interface {
	CreateTask(ctx context.Context, ownerID uuid.UUID, params domain.TaskParams) (*TaskView, error)
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*TaskView, error)
	ListTasks(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*TaskView, error)

	// UpdateTask applies patch to the owner's task. Completing a task stamps
	// completed_at; reopening it clears the stamp.
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, patch domain.TaskPatch) (*TaskView, error)

	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
}

// ErrEmptyPatch is returned when an update carries no fields.
var ErrEmptyPatch = domain.NewValidationError("body", "no fields to update", nil)

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	taskStore store.TaskStore
	db        *sql.DB
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskStore store.TaskStore, db *sql.DB, logger *slog.Logger) *TaskServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskServiceImpl{
		taskStore: taskStore,
		db:        db,
		logger:    logger.With("component", "task_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ TaskService = (*TaskServiceImpl)(nil)

// CreateTask implements TaskService.CreateTask
func (s *TaskServiceImpl) CreateTask(ctx context.Context, ownerID uuid.UUID, params domain.TaskParams) (*TaskView, error) {
	now := s.now()
	task, err := domain.NewTask(ownerID, params, now)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		if domain.IsValidationError(err) {
			return nil, err
		}
		return nil, NewServiceError("create task", "saving task", err)
	}
	return s.view(task, now), nil
}

// GetTask implements TaskService.GetTask
func (s *TaskServiceImpl) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.taskStore.GetByID(ctx, taskID, ownerID)
	if err != nil {
		return nil, s.wrapLookup("get task", err)
	}
	return s.view(task, s.now()), nil
}

// ListTasks implements TaskService.ListTasks
func (s *TaskServiceImpl) ListTasks(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*TaskView, error) {
	tasks, err := s.taskStore.List(ctx, ownerID, filter)
	if err != nil {
		return nil, NewServiceError("list tasks", "loading tasks", err)
	}

	now := s.now()
	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, s.view(task, now))
	}
	return views, nil
}

// UpdateTask implements TaskService.UpdateTask. The row is read for update,
// patched through domain rules and written back in one transaction.
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	patch domain.TaskPatch,
) (*TaskView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	now := s.now()
	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		current, err := txStore.GetByIDForUpdate(ctx, taskID, ownerID)
		if err != nil {
			return err
		}

		updated, err = current.Apply(patch, now)
		if err != nil {
			return err
		}
		return txStore.Update(ctx, updated)
	})
	if err != nil {
		if domain.IsValidationError(err) {
			return nil, err
		}
		return nil, s.wrapLookup("update task", err)
	}

	log.Info("task updated",
		"task_id", taskID,
		"status", updated.Status)
	return s.view(updated, now), nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if err := s.taskStore.Delete(ctx, taskID, ownerID); err != nil {
		return s.wrapLookup("delete task", err)
	}
	return nil
}

func (s *TaskServiceImpl) view(task *domain.Task, now time.Time) *TaskView {
	return &TaskView{Task: task, Status: domain.ResolveStatus(task, now)}
}

// wrapLookup passes not-found through untouched and wraps everything else.
func (s *TaskServiceImpl) wrapLookup(operation string, err error) error {
	if errors.Is(err, store.ErrTaskNotFound) {
		return store.ErrTaskNotFound
	}
	return NewServiceError(operation, "storage failure", err)
}
