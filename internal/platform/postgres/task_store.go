package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/redact"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// recurrenceLockKey is the advisory lock key held by a recurrence run.
const recurrenceLockKey int64 = 0x7461736b_72656375

const taskColumns = `id, user_id, title, description, priority, status, deadline,
		category, recurrence, created_at, updated_at, completed_at, regenerated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()))
		return err
	}

	if err := s.insert(ctx, task); err != nil {
		log.Error("failed to create task",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

func (s *PostgresTaskStore) insert(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.Deadline,
		task.Category,
		task.Recurrence,
		task.CreatedAt,
		task.UpdatedAt,
		nullTime(task.CompletedAt),
		nullTime(task.RegeneratedAt),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user with ID %s not found", store.ErrInvalidEntity, task.UserID)
		}
		return MapError(err)
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	return s.getOne(ctx, id, ownerID, false)
}

// GetByIDForUpdate implements store.TaskStore.GetByIDForUpdate
func (s *PostgresTaskStore) GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	return s.getOne(ctx, id, ownerID, true)
}

func (s *PostgresTaskStore) getOne(ctx context.Context, id, ownerID uuid.UUID, forUpdate bool) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task by ID", slog.String("task_id", id.String()))

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			redact.Attr(err),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildListQuery(ownerID, filter)
	tasks, err := s.query(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			redact.Attr(err),
			slog.String("user_id", ownerID.String()))
		return nil, err
	}

	log.Debug("tasks listed",
		slog.String("user_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// buildListQuery assembles the owner-scoped listing with one placeholder
// per active filter.
func buildListQuery(ownerID uuid.UUID, filter store.TaskFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)
	args := []any{ownerID}

	add := func(clause string, arg any) {
		args = append(args, arg)
		fmt.Fprintf(&sb, clause, len(args))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		add(` AND (title ILIKE $%[1]d ESCAPE '\' OR description ILIKE $%[1]d ESCAPE '\')`,
			"%"+escapeLike(search)+"%")
	}
	if filter.Priority != "" {
		add(` AND priority = $%d`, string(filter.Priority))
	}
	if filter.Status != "" {
		add(` AND status = $%d`, string(filter.Status))
	}
	if filter.Recurrence != "" {
		add(` AND recurrence = $%d`, string(filter.Recurrence))
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		add(` AND LOWER(category) = LOWER($%d)`, category)
	}

	sb.WriteString(` ORDER BY deadline ASC, created_at ASC`)
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, status = $4, deadline = $5,
		    category = $6, recurrence = $7, updated_at = $8, completed_at = $9,
		    regenerated_at = $10
		WHERE id = $11 AND user_id = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.Deadline,
		task.Category,
		task.Recurrence,
		task.UpdatedAt,
		nullTime(task.CompletedAt),
		nullTime(task.RegeneratedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		log.Error("failed to update task",
			redact.Attr(err),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			redact.Attr(err),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	return nil
}

// ListCompletedRecurring implements store.TaskStore.ListCompletedRecurring.
// Rows are locked until the surrounding transaction ends.
func (s *PostgresTaskStore) ListCompletedRecurring(ctx context.Context, onlyUnregenerated bool) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE status = $1 AND recurrence <> $2`
	if onlyUnregenerated {
		query += ` AND regenerated_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC FOR UPDATE`

	tasks, err := s.query(ctx, query, domain.TaskStatusCompleted, domain.RecurrenceNone)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed recurring tasks: %w", err)
	}
	return tasks, nil
}

// CountRegeneratedRecurring implements store.TaskStore.CountRegeneratedRecurring
func (s *PostgresTaskStore) CountRegeneratedRecurring(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks
		WHERE status = $1 AND recurrence <> $2 AND regenerated_at IS NOT NULL`,
		domain.TaskStatusCompleted, domain.RecurrenceNone).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count regenerated recurring tasks: %w", MapError(err))
	}
	return count, nil
}

// BatchCreate implements store.TaskStore.BatchCreate.
// Atomicity comes from the caller's transaction; outside one, a failure
// part-way leaves earlier rows in place.
func (s *PostgresTaskStore) BatchCreate(ctx context.Context, tasks []*domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			return fmt.Errorf("task %s: %w", task.ID, err)
		}
	}
	for _, task := range tasks {
		if err := s.insert(ctx, task); err != nil {
			log.Error("failed to insert task in batch",
				redact.Attr(err),
				slog.String("task_id", task.ID.String()))
			return err
		}
	}

	log.Info("tasks created in batch", slog.Int("count", len(tasks)))
	return nil
}

// MarkRegenerated implements store.TaskStore.MarkRegenerated
func (s *PostgresTaskStore) MarkRegenerated(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, at)
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}

	query := `UPDATE tasks SET regenerated_at = $1 WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark tasks regenerated: %w", MapError(err))
	}
	return nil
}

// AcquireRecurrenceLock implements store.TaskStore.AcquireRecurrenceLock
// with a transaction-scoped advisory lock.
func (s *PostgresTaskStore) AcquireRecurrenceLock(ctx context.Context) (bool, error) {
	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock($1)`, recurrenceLockKey).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to acquire recurrence lock: %w", err)
	}
	return acquired, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                       domain.Task
		priority, status, recur    string
		completedAt, regeneratedAt sql.NullTime
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&priority,
		&status,
		&task.Deadline,
		&task.Category,
		&recur,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
		&regeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.TaskStatus(status)
	task.Recurrence = domain.Recurrence(recur)
	task.CompletedAt = timePtr(completedAt)
	task.RegeneratedAt = timePtr(regeneratedAt)
	return &task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
