// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, the pgx-backed connection setup and
// the embedded goose migrations that create the users and tasks tables.
//
// Stores accept a store.DBTX so the same code runs against a pool or inside
// a caller-managed transaction via WithTx.
package postgres
