package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/blob"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// sniffLen is how much of an upload is buffered for content type detection.
const sniffLen = 3072

// Upload is a file sent for attachment to a task.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// AttachmentService manages files attached to tasks. Metadata lives in the
// attachment store and content in a blob.Store.
type AttachmentService interface {
	// UploadAttachment stores the content, then its metadata. Content is
	// removed again when the metadata cannot be saved.
	UploadAttachment(ctx context.Context, caller *domain.User, taskID int64, up Upload) (*domain.Attachment, error)
	GetAttachment(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Attachment, error)
	ListAttachments(ctx context.Context, caller *domain.User, taskID int64) ([]*domain.Attachment, error)

	// OpenAttachment returns the metadata and a reader over the content.
	// The caller closes the reader.
	OpenAttachment(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Attachment, io.ReadCloser, error)

	// DeleteAttachment is allowed to administrators, the uploader and the
	// task's creator or assignee, even when the uploader no longer takes part
	// in the task; others get ErrForbidden.
	DeleteAttachment(ctx context.Context, caller *domain.User, taskID, id int64) error
}

type attachmentServiceImpl struct {
	tasks       store.TaskStore
	attachments store.AttachmentStore
	blobs       blob.Store
	tx          store.Transactor
	logger      *slog.Logger
}

// NewAttachmentService creates an AttachmentService.
func NewAttachmentService(
	tasks store.TaskStore,
	attachments store.AttachmentStore,
	blobs blob.Store,
	tx store.Transactor,
	logger *slog.Logger,
) AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &attachmentServiceImpl{
		tasks:       tasks,
		attachments: attachments,
		blobs:       blobs,
		tx:          tx,
		logger:      logger.With(slog.String("component", "attachment_service")),
	}
}

func loadAttachment(ctx context.Context, attachments store.AttachmentStore, taskID, id int64) (*domain.Attachment, error) {
	a, err := attachments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.TaskID != taskID {
		return nil, store.ErrAttachmentNotFound
	}
	return a, nil
}

// detectContentType keeps a specific client-supplied type and sniffs the
// content otherwise. It returns a reader replaying the sniffed prefix.
func detectContentType(declared string, r io.Reader) (string, io.Reader, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != domain.DefaultAttachmentContentType {
		return declared, r, nil
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// UploadAttachment implements AttachmentService.
func (s *attachmentServiceImpl) UploadAttachment(
	ctx context.Context,
	caller *domain.User,
	taskID int64,
	up Upload,
) (*domain.Attachment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "attachment", "upload"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(filepath.Base(up.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, NewServiceError("attachment", "upload",
			domain.NewValidationError("filename", "is required", nil))
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("attachment", "upload", err)
	}

	contentType, content, err := detectContentType(up.ContentType, up.Content)
	if err != nil {
		return nil, NewServiceError("attachment", "upload", err)
	}
	locator, size, err := s.blobs.Put(ctx, content, blob.ExtFromFilename(name))
	if err != nil {
		if !errors.Is(err, blob.ErrTooLarge) {
			log.Error("failed to store attachment content",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID))
		}
		return nil, NewServiceError("attachment", "upload", err)
	}

	a := &domain.Attachment{
		TaskID:      taskID,
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		Locator:     locator,
		UploaderID:  caller.ID,
		UploadedAt:  time.Now().UTC(),
	}
	var created *domain.Attachment
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		attachments := s.attachments.WithTx(tx)
		if err := attachments.Create(ctx, a); err != nil {
			return err
		}
		var err error
		created, err = attachments.GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		removeBlob(ctx, log, s.blobs, a)
		if !isExpected(err) {
			log.Error("failed to save attachment",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID))
		}
		return nil, NewServiceError("attachment", "upload", err)
	}

	log.Info("attachment uploaded",
		slog.Int64("attachment_id", created.ID),
		slog.Int64("task_id", taskID),
		slog.Int64("size", created.Size),
		slog.String("content_type", created.ContentType))
	return created, nil
}

// GetAttachment implements AttachmentService.
func (s *attachmentServiceImpl) GetAttachment(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Attachment, error) {
	if err := requireCaller(caller, "attachment", "get"); err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("attachment", "get", err)
	}
	a, err := loadAttachment(ctx, s.attachments, taskID, id)
	if err != nil {
		return nil, NewServiceError("attachment", "get", err)
	}
	return a, nil
}

// ListAttachments implements AttachmentService.
func (s *attachmentServiceImpl) ListAttachments(ctx context.Context, caller *domain.User, taskID int64) ([]*domain.Attachment, error) {
	if err := requireCaller(caller, "attachment", "list"); err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("attachment", "list", err)
	}
	list, err := s.attachments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("attachment", "list", err)
	}
	return list, nil
}

// OpenAttachment implements AttachmentService.
func (s *attachmentServiceImpl) OpenAttachment(
	ctx context.Context,
	caller *domain.User,
	taskID, id int64,
) (*domain.Attachment, io.ReadCloser, error) {
	a, err := s.GetAttachment(ctx, caller, taskID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, a.Locator)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Warn("attachment content missing",
				slog.Int64("attachment_id", a.ID))
			err = store.ErrAttachmentNotFound
		}
		return nil, nil, NewServiceError("attachment", "open", err)
	}
	return a, rc, nil
}

// DeleteAttachment implements AttachmentService.
func (s *attachmentServiceImpl) DeleteAttachment(ctx context.Context, caller *domain.User, taskID, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "attachment", "delete"); err != nil {
		return err
	}
	var removed *domain.Attachment
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.tasks.WithTx(tx).GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		attachments := s.attachments.WithTx(tx)
		a, err := loadAttachment(ctx, attachments, taskID, id)
		if err != nil {
			return err
		}
		if !domain.CanDeleteTaskChild(task, a.UploaderID, caller) {
			return ErrForbidden
		}
		removed = a
		return attachments.Delete(ctx, id)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete attachment",
				slog.String("error", err.Error()),
				slog.Int64("attachment_id", id))
		}
		return NewServiceError("attachment", "delete", err)
	}
	removeBlob(ctx, log, s.blobs, removed)
	return nil
}
