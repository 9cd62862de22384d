// Package config handles configuration loading, parsing, and validation
// from defaults, an optional YAML file, an optional .env file and
// TASKPULSE_-prefixed environment variables. It provides type-safe access
// to the settings of the server, the stores, authentication and the
// recurrence trigger while keeping configuration separate from business logic.
package config
