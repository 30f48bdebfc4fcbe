package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

const commentSelect = `
	SELECT c.id, c.task_id, c.author_id, u.name, c.text, c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// PostgresCommentStore implements store.CommentStore.
type PostgresCommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCommentStore creates a new PostgreSQL implementation of the CommentStore interface.
func NewPostgresCommentStore(db store.DBTX, logger *slog.Logger) *PostgresCommentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*PostgresCommentStore)(nil)

// WithTx implements store.CommentStore.
func (s *PostgresCommentStore) WithTx(tx *sql.Tx) store.CommentStore {
	return &PostgresCommentStore{db: tx, logger: s.logger}
}

func scanComment(row scanner) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.AuthorName, &c.Text,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create implements store.CommentStore.
func (s *PostgresCommentStore) Create(ctx context.Context, comment *domain.Comment) error {
	if err := comment.Validate(); err != nil {
		return err
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (task_id, author_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, comment.TaskID, comment.AuthorID, comment.Text, comment.CreatedAt, comment.UpdatedAt,
	).Scan(&comment.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create comment",
			slog.String("error", err.Error()), slog.Int64("task_id", comment.TaskID))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.CommentStore.
func (s *PostgresCommentStore) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+" WHERE c.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCommentNotFound
		}
		return nil, MapError(err)
	}
	return c, nil
}

// ListByTask implements store.CommentStore.
func (s *PostgresCommentStore) ListByTask(ctx context.Context, taskID int64) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		commentSelect+" WHERE c.task_id = $1 ORDER BY c.created_at DESC, c.id DESC", taskID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list comments",
			slog.String("error", err.Error()), slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, c)
	}
	return out, MapError(rows.Err())
}

// Delete implements store.CommentStore.
func (s *PostgresCommentStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return MapDeleteError(err)
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}
