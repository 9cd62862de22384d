package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// loadAppConfig loads configuration and sets up the structured logger.
func loadAppConfig(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"recurrence_enabled", cfg.Recurrence.Enabled)

	return cfg, l, nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

When recurrence is enabled, completed recurring tasks are regenerated once
a day at the configured wall-clock time. The server shuts down gracefully
on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadAppConfig(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, l)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			return app.Run(ctx)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <" + strings.Join(postgres.MigrationCommands, "|") + ">",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or inspect database migrations.

Only the postgres driver uses versioned migrations; the sqlite driver
creates its schema when the database is opened.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadAppConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires the %s driver, configured driver is %s",
					config.DriverPostgres, cfg.Database.Driver)
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database, l)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					l.Error("error closing database connection", "error", closeErr)
				}
			}()

			return postgres.Migrate(ctx, db, args[0], l)
		},
	}
}

func recurCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recur",
		Short: "Run recurring-task regeneration once and exit",
		Long: `Run a single regeneration pass over completed recurring tasks and
print the result as JSON. Useful for running regeneration from an external
scheduler instead of the in-process daily trigger.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := loadAppConfig(*configPath)
			if err != nil {
				return err
			}

			// The in-process trigger must not fire alongside a manual pass
			cfg.Recurrence.Enabled = false

			ctx := cmd.Context()
			app, err := newApplication(ctx, cfg, l)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.cleanup()

			result, err := app.engine.Run(ctx, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("recurrence run failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
