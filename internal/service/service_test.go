package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/sqlite"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "service-test-secret-that-is-long-enough"

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	db         *sql.DB
	users      store.UserStore
	tasks      store.TaskStore
	clock      *testClock
	userSvc    *UserServiceImpl
	taskSvc    *TaskServiceImpl
	dashSvc    *DashboardServiceImpl
	jwtService auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gdb, sqlDB, err := sqlite.OpenMemory(context.Background(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	users := sqlite.NewUserStore(gdb, logger)
	tasks := sqlite.NewTaskStore(gdb, logger)

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            testSecret,
		TokenLifetimeMinutes: 60,
		BcryptCost:           bcrypt.MinCost,
	})
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}

	userSvc := NewUserService(users, sqlDB, auth.NewBcrypt(bcrypt.MinCost), jwtService, logger)
	userSvc.now = clock.Now
	taskSvc := NewTaskService(tasks, sqlDB, logger)
	taskSvc.now = clock.Now
	dashSvc := NewDashboardService(tasks, logger)
	dashSvc.now = clock.Now

	return &testEnv{
		db:         sqlDB,
		users:      users,
		tasks:      tasks,
		clock:      clock,
		userSvc:    userSvc,
		taskSvc:    taskSvc,
		dashSvc:    dashSvc,
		jwtService: jwtService,
	}
}
