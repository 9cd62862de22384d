package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/api"
	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format(api.DateLayout)
}

func TestTasks_CreateAndGet(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token, _ := srv.signUp("alice")
	deadline := futureDate()

	var created api.TaskResponse
	status := srv.doJSON(http.MethodPost, "/api/tasks", token, api.CreateTaskRequest{
		Title:    "Write report",
		Deadline: deadline,
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, "Medium", created.Priority)
	assert.Equal(t, "Pending", created.Status)
	assert.Equal(t, "General", created.Category)
	assert.Equal(t, "none", created.Recurring)
	assert.Equal(t, deadline, created.Deadline)
	assert.Nil(t, created.CompletedAt)

	var got api.TaskResponse
	status = srv.doJSON(http.MethodGet, "/api/tasks/"+created.ID, token, nil, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, got.ID)
}

func TestTasks_OverdueDisplayStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token, _ := srv.signUp("alice")

	var late api.TaskResponse
	status := srv.doJSON(http.MethodPost, "/api/tasks", token, api.CreateTaskRequest{
		Title:    "Pay rent",
		Priority: "high",
		Deadline: "2020-01-01",
	}, &late)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Overdue", late.Status)
	assert.Equal(t, "High", late.Priority)

	var tasks []api.TaskResponse
	status = srv.doJSON(http.MethodGet, "/api/tasks?status=Overdue", token, nil, &tasks)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, tasks, "status filter compares stored status")

	status = srv.doJSON(http.MethodGet, "/api/tasks?status=Pending", token, nil, &tasks)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Overdue", tasks[0].Status)

	completed := "Completed"
	var updated api.TaskResponse
	status = srv.doJSON(http.MethodPut, "/api/tasks/"+late.ID, token,
		api.UpdateTaskRequest{Status: &completed}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Completed", updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestTasks_ListFilters(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token, _ := srv.signUp("alice")
	deadline := futureDate()

	for _, req := range []api.CreateTaskRequest{
		{Title: "Buy milk", Description: "semi-skimmed", Priority: "Low", Deadline: deadline, Category: "Home"},
		{Title: "Ship release", Priority: "High", Deadline: deadline, Category: "Work", Recurring: "weekly"},
		{Title: "Stand-up", Priority: "High", Deadline: deadline, Category: "Work", Recurring: "daily"},
	} {
		require.Equal(t, http.StatusCreated, srv.doJSON(http.MethodPost, "/api/tasks", token, req, nil))
	}

	testCases := []struct {
		query    string
		expected []string
	}{
		{"", []string{"Buy milk", "Ship release", "Stand-up"}},
		{"?search=SKIMMED", []string{"Buy milk"}},
		{"?priority=high", []string{"Ship release", "Stand-up"}},
		{"?category=Work&recurrence=daily", []string{"Stand-up"}},
		{"?recurring=weekly", []string{"Ship release"}},
		{"?search=nothing-matches", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			var tasks []api.TaskResponse
			status := srv.doJSON(http.MethodGet, "/api/tasks"+tc.query, token, nil, &tasks)
			require.Equal(t, http.StatusOK, status)

			titles := make([]string, 0, len(tasks))
			for _, task := range tasks {
				titles = append(titles, task.Title)
			}
			assert.ElementsMatch(t, tc.expected, titles)
		})
	}

	status, _ := srv.do(http.MethodGet, "/api/tasks?priority=urgent", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTasks_Validation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token, _ := srv.signUp("alice")

	testCases := []struct {
		name string
		body interface{}
	}{
		{"missing title", api.CreateTaskRequest{Deadline: futureDate()}},
		{"missing deadline", api.CreateTaskRequest{Title: "x"}},
		{"bad deadline", api.CreateTaskRequest{Title: "x", Deadline: "next tuesday"}},
		{"bad priority", api.CreateTaskRequest{Title: "x", Deadline: futureDate(), Priority: "Urgent"}},
		{"bad recurrence", api.CreateTaskRequest{Title: "x", Deadline: futureDate(), Recurring: "monthly"}},
		{"blank title", api.CreateTaskRequest{Title: "   ", Deadline: futureDate()}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var errResp shared.ErrorResponse
			status := srv.doJSON(http.MethodPost, "/api/tasks", token, tc.body, &errResp)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, errResp.Error)
		})
	}

	var created api.TaskResponse
	require.Equal(t, http.StatusCreated, srv.doJSON(http.MethodPost, "/api/tasks", token,
		api.CreateTaskRequest{Title: "Read", Deadline: futureDate()}, &created))

	status, _ := srv.do(http.MethodPut, "/api/tasks/"+created.ID, token, `{}`)
	assert.Equal(t, http.StatusBadRequest, status, "empty patch")

	overdue := "Overdue"
	status = srv.doJSON(http.MethodPut, "/api/tasks/"+created.ID, token, api.UpdateTaskRequest{Status: &overdue}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "overdue is derived")

	status, _ = srv.do(http.MethodGet, "/api/tasks/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTasks_OwnerScoping(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	alice, _ := srv.signUp("alice")
	bob, _ := srv.signUp("bob")

	var created api.TaskResponse
	require.Equal(t, http.StatusCreated, srv.doJSON(http.MethodPost, "/api/tasks", alice,
		api.CreateTaskRequest{Title: "Private", Deadline: futureDate()}, &created))

	title := "Hijacked"
	var errResp shared.ErrorResponse
	assert.Equal(t, http.StatusNotFound, srv.doJSON(http.MethodGet, "/api/tasks/"+created.ID, bob, nil, &errResp))
	assert.Equal(t, "Task not found", errResp.Error)
	assert.Equal(t, http.StatusNotFound, srv.doJSON(http.MethodPut, "/api/tasks/"+created.ID, bob,
		api.UpdateTaskRequest{Title: &title}, nil))
	status, _ := srv.do(http.MethodDelete, "/api/tasks/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var bobsTasks []api.TaskResponse
	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodGet, "/api/tasks", bob, nil, &bobsTasks))
	assert.Empty(t, bobsTasks)

	status, _ = srv.do(http.MethodDelete, "/api/tasks/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = srv.do(http.MethodGet, "/api/tasks/"+created.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = srv.do(http.MethodGet, "/api/tasks/"+uuid.NewString(), alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTasks_RequireAuthentication(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	status, _ := srv.do(http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = srv.do(http.MethodGet, "/api/tasks", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = srv.do(http.MethodGet, "/api/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
