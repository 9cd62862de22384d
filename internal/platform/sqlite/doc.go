// Package sqlite implements the store interfaces on SQLite through gorm.
// It serves single-node deployments and the in-memory databases used by
// service, engine and handler tests. The schema is created with AutoMigrate.
//
// SQLite has one writer at a time, so the pool is limited to a single
// connection; that also keeps ":memory:" databases alive for the life of
// the pool. Row locks and advisory locks are therefore no-ops here.
package sqlite
