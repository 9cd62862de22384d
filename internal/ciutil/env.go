package ciutil

import (
	"log/slog"
	"os"
)

// Environment variable names read by this package.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	// EnvTestDatabaseURL is the preferred name for the integration test database.
	EnvTestDatabaseURL = "TASKPULSE_TEST_DB_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// IsCI reports whether the process runs under a known CI provider.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the value of the first non-empty variable in
// names, or defaultValue when none is set. Falling back past the first name
// is logged at warn level when logger is non-nil.
func GetEnvWithFallbacks(names []string, defaultValue string, logger *slog.Logger) string {
	for i, name := range names {
		val := os.Getenv(name)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("using fallback environment variable",
				"used_var", name,
				"preferred_var", names[0])
		}
		return val
	}
	return defaultValue
}

// TestDatabaseURL returns the integration test database URL, preferring
// TASKPULSE_TEST_DB_URL over DATABASE_URL.
func TestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", logger)
}
