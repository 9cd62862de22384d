// Package logger provides structured logging functionality for the application.
//
// It builds JSON log/slog loggers with a configurable level and carries
// request-scoped loggers (for example one tagged with a trace ID) through
// context.Context so stores and services log with the caller's attributes.
package logger
