package store

import (
	"context"
	"database/sql"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing our code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs fn inside a unit of work. Services depend on it instead of
// *sql.DB so they can be exercised without a database; fn receives a nil tx
// when the implementation is not transactional.
type Transactor interface {
	RunInTx(ctx context.Context, fn TxFn) error
}

// DBTransactor is the Transactor backed by a *sql.DB.
type DBTransactor struct {
	db *sql.DB
}

// NewDBTransactor creates a DBTransactor for db.
func NewDBTransactor(db *sql.DB) *DBTransactor {
	return &DBTransactor{db: db}
}

// RunInTx implements Transactor using RunInTransaction.
func (t *DBTransactor) RunInTx(ctx context.Context, fn TxFn) error {
	return RunInTransaction(ctx, t.db, fn)
}
