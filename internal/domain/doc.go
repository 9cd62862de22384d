// Package domain contains the core business entities, value objects, and
// domain logic of the application: tasks, users, the read-time status
// resolution rule and the date arithmetic behind recurring tasks.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
