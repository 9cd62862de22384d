// Package testdb provides helpers for PostgreSQL integration tests: locating
// the test database from the environment, migrating it once per test binary
// and running each test inside a transaction that is always rolled back.
//
// Tests that use it carry the integration build tag and are skipped when no
// database URL is configured.
package testdb
