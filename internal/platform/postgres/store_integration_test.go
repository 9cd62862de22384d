//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/postgres"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/phrazzld/taskpulse-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertUser(ctx context.Context, t *testing.T, tx *sql.Tx, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, "password123", domain.RoleUser, time.Now().UTC())
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
	user.Password = ""
	require.NoError(t, postgres.NewPostgresUserStore(tx, nil).Create(ctx, user))
	return user
}

func TestPostgresStores_TaskLifecycle(t *testing.T) {
	t.Parallel()

	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
		defer cancel()

		owner := insertUser(ctx, t, tx, "pg-owner-"+uuid.NewString()[:8])
		other := insertUser(ctx, t, tx, "pg-other-"+uuid.NewString()[:8])
		tasks := postgres.NewPostgresTaskStore(tx, nil)

		now := time.Now().UTC().Truncate(time.Microsecond)
		task, err := domain.NewTask(owner.ID, domain.TaskParams{
			Title:       "Renew passport",
			Description: "Bring photos",
			Deadline:    now.AddDate(0, 0, 3),
			Recurrence:  domain.RecurrenceWeekly,
		}, now)
		require.NoError(t, err)
		require.NoError(t, tasks.Create(ctx, task))

		_, err = tasks.GetByID(ctx, task.ID, other.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		listed, err := tasks.List(ctx, owner.ID, store.TaskFilter{Search: "PHOTOS"})
		require.NoError(t, err)
		require.Len(t, listed, 1)

		require.NoError(t, task.SetStatus(domain.TaskStatusCompleted, now.Add(time.Hour)))
		require.NoError(t, tasks.Update(ctx, task))

		completed, err := tasks.ListCompletedRecurring(ctx, true)
		require.NoError(t, err)
		assert.Contains(t, taskIDs(completed), task.ID)

		require.NoError(t, tasks.MarkRegenerated(ctx, []uuid.UUID{task.ID}, now))
		completed, err = tasks.ListCompletedRecurring(ctx, true)
		require.NoError(t, err)
		assert.NotContains(t, taskIDs(completed), task.ID)

		ok, err := tasks.AcquireRecurrenceLock(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.ErrorIs(t, tasks.Delete(ctx, task.ID, other.ID), store.ErrTaskNotFound)
		require.NoError(t, tasks.Delete(ctx, task.ID, owner.ID))
	})
}

func TestPostgresUserStore_DuplicateUsername(t *testing.T) {
	t.Parallel()

	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		name := "pg-dup-" + uuid.NewString()[:8]
		insertUser(ctx, t, tx, name)

		dup, err := domain.NewUser(name, "password123", domain.RoleUser, time.Now().UTC())
		require.NoError(t, err)
		dup.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"

		err = postgres.NewPostgresUserStore(tx, nil).Create(ctx, dup)
		assert.ErrorIs(t, err, store.ErrUsernameExists)
	})
}

func taskIDs(tasks []*domain.Task) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}
