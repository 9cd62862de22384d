package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/redact"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskStore implements store.TaskStore on SQLite.
type TaskStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore. If logger is nil, a default logger will be used.
func NewTaskStore(db *gorm.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()))
		return err
	}

	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(toTaskModel(task)).Error
	if err != nil {
		log.Error("failed to create task",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()))
		return mapError(err, store.ErrTaskNotFound)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	var m taskModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), ownerID.String()).
		Take(&m).Error
	if err != nil {
		return nil, mapError(err, store.ErrTaskNotFound)
	}
	return m.toDomain()
}

// GetByIDForUpdate implements store.TaskStore.GetByIDForUpdate. SQLite
// serializes writers, so a plain read inside the transaction is enough.
func (s *TaskStore) GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id, ownerID)
}

// List implements store.TaskStore.List
func (s *TaskStore) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", ownerID.String())

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", string(filter.Priority))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Recurrence != "" {
		q = q.Where("recurrence = ?", string(filter.Recurrence))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", category)
	}

	var models []taskModel
	if err := q.Order("deadline ASC, created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", mapError(err, store.ErrTaskNotFound))
	}
	return toDomainTasks(models)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	m := toTaskModel(task)
	result := s.db.WithContext(ctx).Model(&taskModel{}).
		Where("id = ? AND user_id = ?", m.ID, m.UserID).
		Updates(map[string]any{
			"title":          m.Title,
			"description":    m.Description,
			"priority":       m.Priority,
			"status":         m.Status,
			"deadline":       m.Deadline,
			"category":       m.Category,
			"recurrence":     m.Recurrence,
			"updated_at":     m.UpdatedAt,
			"completed_at":   m.CompletedAt,
			"regenerated_at": m.RegeneratedAt,
		})
	if result.Error != nil {
		log.Error("failed to update task",
			redact.Attr(result.Error),
			slog.String("task_id", m.ID))
		return mapError(result.Error, store.ErrTaskNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	log.Info("task updated",
		slog.String("task_id", m.ID),
		slog.String("status", m.Status))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id.String(), ownerID.String()).
		Delete(&taskModel{})
	if result.Error != nil {
		return mapError(result.Error, store.ErrTaskNotFound)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// ListCompletedRecurring implements store.TaskStore.ListCompletedRecurring
func (s *TaskStore) ListCompletedRecurring(ctx context.Context, onlyUnregenerated bool) ([]*domain.Task, error) {
	q := s.db.WithContext(ctx).
		Where("status = ? AND recurrence <> ?", string(domain.TaskStatusCompleted), string(domain.RecurrenceNone))
	if onlyUnregenerated {
		q = q.Where("regenerated_at IS NULL")
	}

	var models []taskModel
	if err := q.Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list completed recurring tasks: %w", err)
	}
	return toDomainTasks(models)
}

// CountRegeneratedRecurring implements store.TaskStore.CountRegeneratedRecurring
func (s *TaskStore) CountRegeneratedRecurring(ctx context.Context) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&taskModel{}).
		Where("status = ? AND recurrence <> ?", string(domain.TaskStatusCompleted), string(domain.RecurrenceNone)).
		Where("regenerated_at IS NOT NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count regenerated recurring tasks: %w", err)
	}
	return int(count), nil
}

// BatchCreate implements store.TaskStore.BatchCreate with a single
// multi-row INSERT, so the batch lands entirely or not at all.
func (s *TaskStore) BatchCreate(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	models := make([]*taskModel, 0, len(tasks))
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", task.ID, err)
		}
		models = append(models, toTaskModel(task))
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&models).Error; err != nil {
		return fmt.Errorf("batch create tasks: %w", mapError(err, store.ErrTaskNotFound))
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("tasks created in batch", slog.Int("count", len(tasks)))
	return nil
}

// MarkRegenerated implements store.TaskStore.MarkRegenerated
func (s *TaskStore) MarkRegenerated(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	err := s.db.WithContext(ctx).Model(&taskModel{}).
		Where("id IN ?", keys).
		Update("regenerated_at", at.UTC()).Error
	if err != nil {
		return fmt.Errorf("mark tasks regenerated: %w", err)
	}
	return nil
}

// AcquireRecurrenceLock implements store.TaskStore.AcquireRecurrenceLock.
// A single-connection SQLite database cannot host two concurrent runs.
func (s *TaskStore) AcquireRecurrenceLock(context.Context) (bool, error) {
	return true, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: bindTx(s.db, tx), logger: s.logger}
}

func toDomainTasks(models []taskModel) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(models))
	for i := range models {
		task, err := models[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode task %s: %w", models[i].ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
