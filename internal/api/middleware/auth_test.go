package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockJWTService struct {
	mock.Mock
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	args := m.Called(ctx, userID, role)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	claims, _ := args.Get(0).(*auth.Claims)
	return claims, args.Error(1)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	testCases := []struct {
		name       string
		header     string
		setup      func(m *mockJWTService)
		wantStatus int
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "expired token",
			header: "Bearer expired",
			setup: func(m *mockJWTService) {
				m.On("ValidateToken", mock.Anything, "expired").Return(nil, auth.ErrExpiredToken)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "invalid token",
			header: "Bearer garbage",
			setup: func(m *mockJWTService) {
				m.On("ValidateToken", mock.Anything, "garbage").Return(nil, auth.ErrInvalidToken)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "valid token",
			header: "bearer good",
			setup: func(m *mockJWTService) {
				m.On("ValidateToken", mock.Anything, "good").
					Return(&auth.Claims{UserID: userID, Role: domain.RoleAdmin}, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mockJWTService{}
			if tc.setup != nil {
				tc.setup(jwtService)
			}

			var gotUser uuid.UUID
			var gotRole domain.Role
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = shared.UserID(r.Context())
				gotRole, _ = shared.Role(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, domain.RoleAdmin, gotRole)
			}
			jwtService.AssertExpectations(t)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(next)

	serve := func(ctx context.Context) int {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/recurrence/run", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))
	assert.Equal(t, http.StatusForbidden, serve(shared.WithIdentity(context.Background(), uuid.New(), domain.RoleUser)))
	assert.Equal(t, http.StatusNoContent, serve(shared.WithIdentity(context.Background(), uuid.New(), domain.RoleAdmin)))
}

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	NewTraceMiddleware(nil)(next).ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, traceID, 2*shared.TraceIDLength)
}
