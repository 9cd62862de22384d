package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

// TaskFilter narrows a task listing. Zero-valued fields do not filter.
type TaskFilter struct {
	// Search matches title or description, case-insensitively.
	Search     string
	Priority   domain.Priority
	Status     domain.TaskStatus
	Recurrence domain.Recurrence
	Category   string
}

// TaskStore defines the interface for task data persistence.
// Every per-owner operation is scoped by ownerID; a task owned by someone
// else is reported as ErrTaskNotFound.
type TaskStore interface {
	// Create saves a new task. The task must pass domain validation.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves the owner's task by ID.
	// Returns ErrTaskNotFound if it does not exist or belongs to another user.
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// GetByIDForUpdate behaves like GetByID and locks the row for the rest of
	// the current transaction where the backend supports row locks.
	GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks matching filter, ordered by deadline.
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)

	// Update persists every mutable field of task, scoped to task.UserID.
	// Returns ErrTaskNotFound if no row matched.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the owner's task. Returns ErrTaskNotFound if no row matched.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// ListCompletedRecurring returns every completed task with a recurrence
	// other than none, across all owners. When onlyUnregenerated is true,
	// tasks already carrying a regeneration marker are excluded.
	ListCompletedRecurring(ctx context.Context, onlyUnregenerated bool) ([]*domain.Task, error)

	// CountRegeneratedRecurring counts completed recurring tasks that already
	// carry a regeneration marker, across all owners. Rows are not locked.
	CountRegeneratedRecurring(ctx context.Context) (int, error)

	// BatchCreate inserts all tasks or none of them.
	BatchCreate(ctx context.Context, tasks []*domain.Task) error

	// MarkRegenerated stamps the regeneration marker on the given tasks.
	MarkRegenerated(ctx context.Context, ids []uuid.UUID, at time.Time) error

	// AcquireRecurrenceLock takes a transaction-scoped lock that serializes
	// recurrence runs across processes. It reports false when another run
	// holds the lock. Backends without cross-process locking return true.
	AcquireRecurrenceLock(ctx context.Context) (bool, error)

	// WithTx returns a TaskStore that runs every statement on tx.
	WithTx(tx *sql.Tx) TaskStore
}
