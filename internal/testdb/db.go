//go:build integration

// Package testdb provides Postgres helpers for integration tests.
//
// Each test runs in its own transaction that is rolled back when the test
// function returns, so tests can share one database and run in parallel:
//
//	func TestUserStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewPostgresUserStore(tx, bcrypt.MinCost, nil)
//	        ...
//	    })
//	}
//
// The database URL comes from TAKEATASK_TEST_DB_URL, falling back to
// DATABASE_URL. Tests are skipped when neither is set.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/platform/postgres"
)

// TestTimeout bounds connection checks.
const TestTimeout = 5 * time.Second

var urlEnvVars = []string{"TAKEATASK_TEST_DB_URL", "DATABASE_URL"}

// migrateOnce applies the schema once per test binary.
var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the first configured database URL, or "".
func GetTestDatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// GetTestDBWithT opens a migrated database and closes it on test cleanup.
// The test is skipped when no database URL is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skipf("%s not set - skipping integration test", strings.Join(urlEnvVars, " or "))
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open database connection")
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close database connection: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "database ping failed")

	migrateOnce.Do(func() { migrateErr = applyMigrations(db) })
	require.NoError(t, migrateErr, "failed to apply migrations")

	return db
}

func applyMigrations(db *sql.DB) error {
	goose.SetBaseFS(postgres.MigrationsFS)
	goose.SetTableName(postgres.MigrationsTable)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
