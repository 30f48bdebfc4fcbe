// Package store defines the persistence contracts of the task board: one
// interface per entity, the shared error vocabulary and transaction helpers.
// Implementations live under internal/platform.
package store
