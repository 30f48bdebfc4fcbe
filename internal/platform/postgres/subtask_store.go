package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

const subtaskSelect = `
	SELECT s.id, s.task_id, s.description, s.completed, s.assignee_id, u.name, s.created_at, s.updated_at
	FROM subtasks s
	LEFT JOIN users u ON u.id = s.assignee_id`

// PostgresSubtaskStore implements store.SubtaskStore.
type PostgresSubtaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubtaskStore creates a new PostgreSQL implementation of the SubtaskStore interface.
func NewPostgresSubtaskStore(db store.DBTX, logger *slog.Logger) *PostgresSubtaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSubtaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "subtask_store")),
	}
}

var _ store.SubtaskStore = (*PostgresSubtaskStore)(nil)

// WithTx implements store.SubtaskStore.
func (s *PostgresSubtaskStore) WithTx(tx *sql.Tx) store.SubtaskStore {
	return &PostgresSubtaskStore{db: tx, logger: s.logger}
}

func scanSubtask(row scanner) (*domain.Subtask, error) {
	var (
		st         domain.Subtask
		assigneeID sql.NullInt64
		assignee   sql.NullString
	)
	err := row.Scan(&st.ID, &st.TaskID, &st.Description, &st.Completed,
		&assigneeID, &assignee, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.AssigneeID = int64Ptr(assigneeID)
	st.AssigneeName = assignee.String
	return &st, nil
}

// Create implements store.SubtaskStore.
func (s *PostgresSubtaskStore) Create(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return err
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subtasks (task_id, description, completed, assignee_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, subtask.TaskID, subtask.Description, subtask.Completed, nullInt64(subtask.AssigneeID),
		subtask.CreatedAt, subtask.UpdatedAt,
	).Scan(&subtask.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create subtask",
			slog.String("error", err.Error()), slog.Int64("task_id", subtask.TaskID))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.SubtaskStore.
func (s *PostgresSubtaskStore) GetByID(ctx context.Context, id int64) (*domain.Subtask, error) {
	st, err := scanSubtask(s.db.QueryRowContext(ctx, subtaskSelect+" WHERE s.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSubtaskNotFound
		}
		return nil, MapError(err)
	}
	return st, nil
}

// ListByTask implements store.SubtaskStore. Subtasks come back in creation order.
func (s *PostgresSubtaskStore) ListByTask(ctx context.Context, taskID int64) ([]*domain.Subtask, error) {
	rows, err := s.db.QueryContext(ctx, subtaskSelect+" WHERE s.task_id = $1 ORDER BY s.id", taskID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list subtasks",
			slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.Subtask{}
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, st)
	}
	return out, MapError(rows.Err())
}

// Update implements store.SubtaskStore.
func (s *PostgresSubtaskStore) Update(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return err
	}
	subtask.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE subtasks SET description = $1, completed = $2, assignee_id = $3, updated_at = $4
		WHERE id = $5
	`, subtask.Description, subtask.Completed, nullInt64(subtask.AssigneeID), subtask.UpdatedAt, subtask.ID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubtaskNotFound)
}

// Delete implements store.SubtaskStore.
func (s *PostgresSubtaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = $1", id)
	if err != nil {
		return MapDeleteError(err)
	}
	return CheckRowsAffected(result, store.ErrSubtaskNotFound)
}
