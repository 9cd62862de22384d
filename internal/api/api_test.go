package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskpulse-api/internal/api"
	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/sqlite"
	"github.com/phrazzld/taskpulse-api/internal/recurrence"
	"github.com/phrazzld/taskpulse-api/internal/service"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	t *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gdb, sqlDB, err := sqlite.OpenMemory(context.Background(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	userStore := sqlite.NewUserStore(gdb, logger)
	taskStore := sqlite.NewTaskStore(gdb, logger)

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "api-test-secret-that-is-at-least-32-chars",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	engine, err := recurrence.NewEngine(taskStore, sqlDB, recurrence.PolicyMarkRegenerated, logger)
	require.NoError(t, err)

	router := api.NewRouter(api.RouterDeps{
		UserService: service.NewUserService(
			userStore, sqlDB, auth.NewBcrypt(bcrypt.MinCost), jwtService, logger,
		),
		TaskService:      service.NewTaskService(taskStore, sqlDB, logger),
		DashboardService: service.NewDashboardService(taskStore, logger),
		JWTService:       jwtService,
		Recurrence:       engine,
		Logger:           logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t}
}

// do sends a request with an optional JSON body and bearer token and
// returns the status code and raw body.
func (s *testServer) do(method, path, token string, body interface{}) (int, []byte) {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(s.t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, raw
}

// doJSON is do followed by decoding the body into out.
func (s *testServer) doJSON(method, path, token string, body, out interface{}) int {
	s.t.Helper()
	status, raw := s.do(method, path, token, body)
	if out != nil && len(raw) > 0 {
		require.NoError(s.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return status
}

// signUp registers and logs in a user, returning the token.
func (s *testServer) signUp(username string) (string, api.AuthResponse) {
	s.t.Helper()
	creds := api.RegisterRequest{Username: username, Password: "password123"}

	status := s.doJSON(http.MethodPost, "/api/auth/register", "", creds, nil)
	require.Equal(s.t, http.StatusCreated, status)

	var login api.AuthResponse
	status = s.doJSON(http.MethodPost, "/api/auth/login", "", api.LoginRequest(creds), &login)
	require.Equal(s.t, http.StatusOK, status)
	return login.Token, login
}
