package api_test

import (
	"net/http"
	"testing"

	"github.com/phrazzld/taskpulse-api/internal/api"
	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurrenceRun(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	admin, _ := srv.signUp("alice")
	user, _ := srv.signUp("bob")

	var source api.TaskResponse
	require.Equal(t, http.StatusCreated, srv.doJSON(http.MethodPost, "/api/tasks", user,
		api.CreateTaskRequest{Title: "Stand-up", Deadline: "2024-03-01", Recurring: "daily"}, &source))
	completed := "Completed"
	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodPut, "/api/tasks/"+source.ID, user,
		api.UpdateTaskRequest{Status: &completed}, nil))

	var errResp shared.ErrorResponse
	status := srv.doJSON(http.MethodPost, "/api/admin/recurrence/run", user, nil, &errResp)
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotEmpty(t, errResp.Error)

	status, _ = srv.do(http.MethodPost, "/api/admin/recurrence/run", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var result api.RunResultResponse
	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodPost, "/api/admin/recurrence/run", admin, nil, &result))
	assert.Equal(t, 1, result.GeneratedCount)
	assert.Equal(t, 1, result.Considered)
	assert.Empty(t, result.Skipped)

	var tasks []api.TaskResponse
	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodGet, "/api/tasks?recurring=daily", user, nil, &tasks))
	require.Len(t, tasks, 2)

	var next *api.TaskResponse
	for i := range tasks {
		if tasks[i].ID != source.ID {
			next = &tasks[i]
		}
	}
	require.NotNil(t, next)
	assert.Equal(t, "2024-03-02", next.Deadline)
	assert.Equal(t, "Overdue", next.Status)

	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodPost, "/api/admin/recurrence/run", admin, nil, &result))
	assert.Equal(t, 0, result.GeneratedCount)
	assert.Equal(t, 1, result.AlreadyRegenerated)
}
