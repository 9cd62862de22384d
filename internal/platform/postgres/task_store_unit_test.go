package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{
	"id", "user_id", "title", "description", "priority", "status", "deadline",
	"category", "recurrence", "created_at", "updated_at", "completed_at", "regenerated_at",
}

func newMockTaskStore(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresTaskStore(db, nil), mock
}

func sampleTask(t *testing.T) *domain.Task {
	t.Helper()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(uuid.New(), domain.TaskParams{
		Title:      "Pay rent",
		Deadline:   now.AddDate(0, 0, 2),
		Recurrence: domain.RecurrenceWeekly,
	}, now)
	require.NoError(t, err)
	return task
}

func TestBuildListQuery(t *testing.T) {
	t.Parallel()

	owner := uuid.New()

	query, args := buildListQuery(owner, store.TaskFilter{})
	assert.Equal(t, []any{owner}, args)
	assert.NotContains(t, query, "ILIKE")
	assert.Contains(t, query, "ORDER BY deadline ASC")

	query, args = buildListQuery(owner, store.TaskFilter{
		Search:     "50%_off",
		Priority:   domain.PriorityHigh,
		Status:     domain.TaskStatusPending,
		Recurrence: domain.RecurrenceDaily,
		Category:   "Work",
	})
	require.Len(t, args, 6)
	assert.Equal(t, `%50\%\_off%`, args[1])
	assert.Contains(t, query, "title ILIKE $2")
	assert.Contains(t, query, "description ILIKE $2")
	assert.Contains(t, query, "priority = $3")
	assert.Contains(t, query, "status = $4")
	assert.Contains(t, query, "recurrence = $5")
	assert.Contains(t, query, "LOWER(category) = LOWER($6)")
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("not found or foreign", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE id = $1 AND user_id = $2")).
			WillReturnRows(sqlmock.NewRows(taskRowColumns))

		task, err := s.GetByID(context.Background(), uuid.New(), uuid.New())
		assert.Nil(t, task)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scans nullable timestamps", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		want := sampleTask(t)
		completed := want.CreatedAt.Add(time.Hour)

		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
			WithArgs(want.ID, want.UserID).
			WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
				want.ID.String(), want.UserID.String(), want.Title, want.Description,
				"High", "Completed", want.Deadline, want.Category, "weekly",
				want.CreatedAt, completed, completed, nil,
			))

		got, err := s.GetByIDForUpdate(context.Background(), want.ID, want.UserID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		assert.Equal(t, domain.TaskStatusCompleted, got.Status)
		assert.Equal(t, domain.RecurrenceWeekly, got.Recurrence)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(completed))
		assert.Nil(t, got.RegeneratedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("missing owner maps to invalid entity", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		mock.ExpectExec("INSERT INTO tasks").
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

		err := s.Create(context.Background(), sampleTask(t))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid task never reaches the database", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		task := sampleTask(t)
		task.Title = ""

		err := s.Create(context.Background(), task)
		assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_UpdateAndDelete_ScopedToOwner(t *testing.T) {
	t.Parallel()

	s, mock := newMockTaskStore(t)
	task := sampleTask(t)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $11 AND user_id = $12")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1 AND user_id = $2")).
		WithArgs(task.ID, task.UserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.Update(context.Background(), task), store.ErrTaskNotFound)
	assert.ErrorIs(t, s.Delete(context.Background(), task.ID, task.UserID), store.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_RecurrenceHelpers(t *testing.T) {
	t.Parallel()

	t.Run("lock held elsewhere", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("pg_try_advisory_xact_lock")).
			WithArgs(recurrenceLockKey).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_xact_lock"}).AddRow(false))

		ok, err := s.AcquireRecurrenceLock(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark regenerated", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		at := time.Now().UTC()
		a, b := uuid.New(), uuid.New()
		mock.ExpectExec(regexp.QuoteMeta("SET regenerated_at = $1 WHERE id IN ($2, $3)")).
			WithArgs(at, a, b).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, s.MarkRegenerated(context.Background(), []uuid.UUID{a, b}, at))
		require.NoError(t, s.MarkRegenerated(context.Background(), nil, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unregenerated filter", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("AND regenerated_at IS NULL")).
			WithArgs(domain.TaskStatusCompleted, domain.RecurrenceNone).
			WillReturnRows(sqlmock.NewRows(taskRowColumns))

		tasks, err := s.ListCompletedRecurring(context.Background(), true)
		require.NoError(t, err)
		assert.Empty(t, tasks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count regenerated", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tasks")).
			WithArgs(domain.TaskStatusCompleted, domain.RecurrenceNone).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := s.CountRegeneratedRecurring(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 7, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTaskStore_WithTx(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tasks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := NewPostgresTaskStore(db, nil)
	err = store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		return s.WithTx(tx).Delete(ctx, uuid.New(), uuid.New())
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
