// Package service provides the application services behind the HTTP API:
// registration and login, owner-scoped task management and the analytics
// dashboard. Services own transaction boundaries and the clock; stores
// stay free of business rules.
package service
