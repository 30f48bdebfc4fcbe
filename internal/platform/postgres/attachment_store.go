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

const attachmentSelect = `
	SELECT a.id, a.task_id, a.filename, a.content_type, a.size_bytes, a.locator,
		a.uploader_id, u.name, a.uploaded_at
	FROM attachments a
	JOIN users u ON u.id = a.uploader_id`

// PostgresAttachmentStore implements store.AttachmentStore.
type PostgresAttachmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttachmentStore creates a new PostgreSQL implementation of the AttachmentStore interface.
func NewPostgresAttachmentStore(db store.DBTX, logger *slog.Logger) *PostgresAttachmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAttachmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "attachment_store")),
	}
}

var _ store.AttachmentStore = (*PostgresAttachmentStore)(nil)

// WithTx implements store.AttachmentStore.
func (s *PostgresAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore {
	return &PostgresAttachmentStore{db: tx, logger: s.logger}
}

func scanAttachment(row scanner) (*domain.Attachment, error) {
	var a domain.Attachment
	err := row.Scan(&a.ID, &a.TaskID, &a.Filename, &a.ContentType, &a.Size, &a.Locator,
		&a.UploaderID, &a.UploaderName, &a.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create implements store.AttachmentStore.
func (s *PostgresAttachmentStore) Create(ctx context.Context, a *domain.Attachment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO attachments (task_id, filename, content_type, size_bytes, locator, uploader_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, a.TaskID, a.Filename, a.ContentType, a.Size, a.Locator, a.UploaderID, a.UploadedAt,
	).Scan(&a.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record attachment",
			slog.String("error", err.Error()), slog.Int64("task_id", a.TaskID))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.AttachmentStore.
func (s *PostgresAttachmentStore) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx, attachmentSelect+" WHERE a.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAttachmentNotFound
		}
		return nil, MapError(err)
	}
	return a, nil
}

// ListByTask implements store.AttachmentStore.
func (s *PostgresAttachmentStore) ListByTask(ctx context.Context, taskID int64) ([]*domain.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, attachmentSelect+" WHERE a.task_id = $1 ORDER BY a.id", taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []*domain.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, a)
	}
	return out, MapError(rows.Err())
}

// Delete implements store.AttachmentStore.
func (s *PostgresAttachmentStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = $1", id)
	if err != nil {
		return MapDeleteError(err)
	}
	return CheckRowsAffected(result, store.ErrAttachmentNotFound)
}
