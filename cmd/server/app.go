package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/postgres"
	"github.com/phrazzld/taskpulse-api/internal/platform/sqlite"
	"github.com/phrazzld/taskpulse-api/internal/recurrence"
	"github.com/phrazzld/taskpulse-api/internal/service"
	"github.com/phrazzld/taskpulse-api/internal/service/auth"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// triggerStopTimeout bounds how long shutdown waits for an in-flight
// scheduled run.
const triggerStopTimeout = 30 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService       auth.JWTService
	userService      service.UserService
	taskService      service.TaskService
	dashboardService service.DashboardService

	engine  *recurrence.Engine
	trigger *recurrence.CronTrigger
}

// newApplication opens the configured store and builds every service on
// top of it. The daily trigger is created but not started; Run starts it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.openStores(ctx); err != nil {
		return nil, err
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.userService = service.NewUserService(
		app.userStore,
		app.db,
		auth.NewBcrypt(cfg.Auth.BcryptCost),
		app.jwtService,
		logger,
	)
	app.taskService = service.NewTaskService(app.taskStore, app.db, logger)
	app.dashboardService = service.NewDashboardService(app.taskStore, logger)

	policy, err := recurrence.ParsePolicy(cfg.Recurrence.Policy)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.engine, err = recurrence.NewEngine(app.taskStore, app.db, policy, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create recurrence engine: %w", err)
	}

	if cfg.Recurrence.Enabled {
		app.trigger, err = recurrence.NewCronTrigger(ctx, app.engine, cfg.Recurrence, logger)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to create recurrence trigger: %w", err)
		}
	}

	logger.Info("application initialized",
		"recurrence_policy", string(policy),
		"recurrence_enabled", cfg.Recurrence.Enabled)
	return app, nil
}

// openStores connects to the configured database and builds the stores
// for its driver.
func (app *application) openStores(ctx context.Context) error {
	switch app.config.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		app.db = db
		app.userStore = postgres.NewPostgresUserStore(db, app.logger)
		app.taskStore = postgres.NewPostgresTaskStore(db, app.logger)

	case config.DriverSQLite:
		gdb, err := sqlite.Open(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		db, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("failed to get sqlite connection: %w", err)
		}
		app.db = db
		app.userStore = sqlite.NewUserStore(gdb, app.logger)
		app.taskStore = sqlite.NewTaskStore(gdb, app.logger)

	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}

	return nil
}

// Run starts the daily trigger and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	if app.trigger != nil {
		app.trigger.Start()
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.trigger != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), triggerStopTimeout)
		if err := app.trigger.Stop(stopCtx); err != nil {
			app.logger.Error("recurrence trigger did not stop cleanly", "error", err)
		}
		cancel()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
