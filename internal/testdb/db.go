package testdb

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/ciutil"
	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the configured integration test database URL.
func GetTestDatabaseURL() string {
	return ciutil.TestDatabaseURL(nil)
}

// IsIntegrationTestEnvironment reports whether a test database is configured.
func IsIntegrationTestEnvironment() bool {
	return GetTestDatabaseURL() != ""
}

// GetTestDBWithT opens the test database, applies migrations on first use and
// closes the pool when t finishes. It skips t when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	url := GetTestDatabaseURL()
	if url == "" {
		// CI must provide a database
		if ciutil.IsCI() {
			t.Fatalf("%s or %s must be set in CI", ciutil.EnvTestDatabaseURL, ciutil.EnvDatabaseURL)
		}
		t.Skip("no test database configured, skipping PostgreSQL integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		URL:          url,
		MaxOpenConns: 5,
	}, testLogger(t))
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(context.Background(), db, "up", testLogger(t))
	})
	require.NoError(t, migrateErr, "failed to run migrations")

	return db
}
