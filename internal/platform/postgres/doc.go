// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx driver, and embeds the goose migrations
// that create the users, tags, tasks and task child tables.
package postgres
