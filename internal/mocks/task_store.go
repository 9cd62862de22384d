package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
type MockTaskStore struct {
	CreateFn                 func(ctx context.Context, task *domain.Task) error
	GetByIDFn                func(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)
	ListFn                   func(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error)
	UpdateFn                 func(ctx context.Context, task *domain.Task) error
	DeleteFn                 func(ctx context.Context, id, ownerID uuid.UUID) error
	ListCompletedRecurringFn func(ctx context.Context, onlyUnregenerated bool) ([]*domain.Task, error)
	CountRegeneratedFn       func(ctx context.Context) (int, error)
	BatchCreateFn            func(ctx context.Context, tasks []*domain.Task) error
	MarkRegeneratedFn        func(ctx context.Context, ids []uuid.UUID, at time.Time) error
	AcquireRecurrenceLockFn  func(ctx context.Context) (bool, error)

	// Calls counts invocations per method name.
	Calls map[string]int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) record(method string) {
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[method]++
}

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	return nil
}

// GetByID implements store.TaskStore
func (m *MockTaskStore) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	m.record("GetByID")
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id, ownerID)
	}
	return nil, store.ErrTaskNotFound
}

// GetByIDForUpdate implements store.TaskStore and shares GetByIDFn.
func (m *MockTaskStore) GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	m.record("GetByIDForUpdate")
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id, ownerID)
	}
	return nil, store.ErrTaskNotFound
}

// List implements store.TaskStore
func (m *MockTaskStore) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID, filter)
	}
	return nil, nil
}

// Update implements store.TaskStore
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	return nil
}

// Delete implements store.TaskStore
func (m *MockTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id, ownerID)
	}
	return nil
}

// ListCompletedRecurring implements store.TaskStore
func (m *MockTaskStore) ListCompletedRecurring(ctx context.Context, onlyUnregenerated bool) ([]*domain.Task, error) {
	m.record("ListCompletedRecurring")
	if m.ListCompletedRecurringFn != nil {
		return m.ListCompletedRecurringFn(ctx, onlyUnregenerated)
	}
	return nil, nil
}

// CountRegeneratedRecurring implements store.TaskStore
func (m *MockTaskStore) CountRegeneratedRecurring(ctx context.Context) (int, error) {
	m.record("CountRegeneratedRecurring")
	if m.CountRegeneratedFn != nil {
		return m.CountRegeneratedFn(ctx)
	}
	return 0, nil
}

// BatchCreate implements store.TaskStore
func (m *MockTaskStore) BatchCreate(ctx context.Context, tasks []*domain.Task) error {
	m.record("BatchCreate")
	if m.BatchCreateFn != nil {
		return m.BatchCreateFn(ctx, tasks)
	}
	return nil
}

// MarkRegenerated implements store.TaskStore
func (m *MockTaskStore) MarkRegenerated(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	m.record("MarkRegenerated")
	if m.MarkRegeneratedFn != nil {
		return m.MarkRegeneratedFn(ctx, ids, at)
	}
	return nil
}

// AcquireRecurrenceLock implements store.TaskStore
func (m *MockTaskStore) AcquireRecurrenceLock(ctx context.Context) (bool, error) {
	m.record("AcquireRecurrenceLock")
	if m.AcquireRecurrenceLockFn != nil {
		return m.AcquireRecurrenceLockFn(ctx)
	}
	return true, nil
}

// WithTx returns the same mock; the transaction is ignored.
func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}
