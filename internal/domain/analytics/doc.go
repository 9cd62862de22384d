// Package analytics computes per-user productivity figures from a snapshot
// of tasks. Everything here is pure: callers fetch the tasks, pick the
// reference time, and receive a Summary without touching storage.
package analytics
