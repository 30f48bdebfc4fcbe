package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/takeatask-api/internal/platform/postgres"
	"github.com/phrazzld/takeatask-api/internal/store"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "test_table",
		ColumnName:     "test_column",
		ConstraintName: constraint,
	}
}

// MockResult implements sql.Result for testing
type MockResult struct {
	rowsAffected int64
	err          error
}

func (m MockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m MockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	generic := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: sql.ErrNoRows, want: store.ErrNotFound},
		{name: "login taken", err: newPgError("23505", "users_login_key"), want: store.ErrLoginExists},
		{name: "email taken", err: newPgError("23505", "users_email_key"), want: store.ErrEmailExists},
		{name: "tag name taken", err: newPgError("23505", "tags_name_key"), want: store.ErrTagNameExists},
		{name: "unknown unique constraint", err: newPgError("23505", "other_key"), want: store.ErrDuplicate},
		{name: "foreign key", err: newPgError("23503", "tasks_assignee_id_fkey"), want: store.ErrInvalidEntity},
		{name: "check", err: newPgError("23514", "tasks_status_check"), want: store.ErrInvalidEntity},
		{name: "not null", err: newPgError("23502", ""), want: store.ErrInvalidEntity},
		{name: "wrapped pg error", err: fmt.Errorf("insert: %w", newPgError("23505", "users_login_key")), want: store.ErrLoginExists},
		{name: "other error passes through", err: generic, want: generic},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, postgres.MapError(tc.err), tc.want)
		})
	}

	assert.NoError(t, postgres.MapError(nil))
}

func TestMapError_DuplicateSpecificity(t *testing.T) {
	err := postgres.MapError(newPgError("23505", "users_email_key"))
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NotErrorIs(t, err, store.ErrLoginExists)
}

func TestMapDeleteError(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, postgres.MapDeleteError(newPgError("23503", "task_tags_tag_id_fkey")), store.ErrReferenced)
	assert.ErrorIs(t, postgres.MapDeleteError(sql.ErrNoRows), store.ErrNotFound)
	assert.NoError(t, postgres.MapDeleteError(nil))
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505", "")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503", "")))
	assert.False(t, postgres.IsUniqueViolation(nil))
	assert.True(t, postgres.IsForeignKeyViolation(newPgError("23503", "")))
	assert.False(t, postgres.IsForeignKeyViolation(errors.New("generic")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  sql.Result
		wantErr error
		errText string
	}{
		{name: "one row", result: MockResult{rowsAffected: 1}},
		{name: "no rows", result: MockResult{rowsAffected: 0}, wantErr: store.ErrTaskNotFound},
		{name: "nil result", result: nil, errText: "nil result"},
		{name: "driver error", result: MockResult{err: errors.New("driver")}, errText: "failed to get rows affected"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := postgres.CheckRowsAffected(tc.result, store.ErrTaskNotFound)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errText != "":
				assert.ErrorContains(t, err, tc.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
