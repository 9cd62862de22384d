package ciutil

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func clearCI(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		t.Setenv(name, "")
	}
}

func TestIsCI(t *testing.T) {
	clearCI(t)
	assert.False(t, IsCI())

	t.Setenv(EnvGitHubActions, "true")
	assert.True(t, IsCI())
}

func TestGetEnvWithFallbacks(t *testing.T) {
	t.Setenv("TASKPULSE_A", "")
	t.Setenv("TASKPULSE_B", "")

	assert.Equal(t, "fallback", GetEnvWithFallbacks([]string{"TASKPULSE_A", "TASKPULSE_B"}, "fallback", nil))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	t.Setenv("TASKPULSE_B", "second")
	assert.Equal(t, "second", GetEnvWithFallbacks([]string{"TASKPULSE_A", "TASKPULSE_B"}, "", logger))
	assert.Contains(t, buf.String(), "preferred_var=TASKPULSE_A")

	buf.Reset()
	t.Setenv("TASKPULSE_A", "first")
	assert.Equal(t, "first", GetEnvWithFallbacks([]string{"TASKPULSE_A", "TASKPULSE_B"}, "", logger))
	assert.Empty(t, buf.String())
}

func TestTestDatabaseURL(t *testing.T) {
	t.Setenv(EnvTestDatabaseURL, "")
	t.Setenv(EnvDatabaseURL, "postgres://localhost/app")
	assert.Equal(t, "postgres://localhost/app", TestDatabaseURL(nil))

	t.Setenv(EnvTestDatabaseURL, "postgres://localhost/test")
	assert.Equal(t, "postgres://localhost/test", TestDatabaseURL(nil))
}
