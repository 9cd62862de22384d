package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/phrazzld/taskpulse-api/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	token, _ := srv.signUp("alice")

	var empty api.DashboardResponse
	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodGet, "/api/dashboard", token, nil, &empty))
	assert.Equal(t, 0, empty.Basic.Total)
	assert.Equal(t, "0.0%", empty.Basic.Rate)
	assert.Equal(t, "N/A", empty.Advanced.TopPriority)

	var done api.TaskResponse
	require.Equal(t, http.StatusCreated, srv.doJSON(http.MethodPost, "/api/tasks", token,
		api.CreateTaskRequest{Title: "Done", Priority: "High", Deadline: futureDate()}, &done))
	require.Equal(t, http.StatusCreated, srv.doJSON(http.MethodPost, "/api/tasks", token,
		api.CreateTaskRequest{Title: "Late", Priority: "High", Deadline: "2020-01-01", Category: "Work"}, nil))

	completed := "Completed"
	require.Equal(t, http.StatusOK, srv.doJSON(http.MethodPut, "/api/tasks/"+done.ID, token,
		api.UpdateTaskRequest{Status: &completed}, nil))

	status, raw := srv.do(http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)

	var shape map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &shape))
	assert.Contains(t, shape, "basic")
	assert.Contains(t, shape, "advanced")
	assert.Contains(t, shape, "breakdown")
	assert.Contains(t, shape["advanced"], "avg_completion_hours")

	var dashboard api.DashboardResponse
	require.NoError(t, json.Unmarshal(raw, &dashboard))
	assert.Equal(t, api.DashboardBasic{Total: 2, Completed: 1, Overdue: 1, Rate: "50.0%"}, dashboard.Basic)
	assert.Equal(t, "High", dashboard.Advanced.TopPriority)
	assert.GreaterOrEqual(t, dashboard.Advanced.AvgCompletionHours, 0.0)
	assert.Equal(t, map[string]int{"High": 2}, dashboard.Breakdown.ByPriority)
	assert.Equal(t, map[string]int{"General": 1, "Work": 1}, dashboard.Breakdown.ByCategory)
}
