package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// CommentService manages the discussion on a task.
type CommentService interface {
	// CreateComment records text on the task with the caller as author.
	CreateComment(ctx context.Context, caller *domain.User, taskID int64, text string) (*domain.Comment, error)
	GetComment(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Comment, error)

	// ListComments returns the comments of a task, newest first.
	ListComments(ctx context.Context, caller *domain.User, taskID int64) ([]*domain.Comment, error)

	// DeleteComment is allowed to administrators, the author and the task's
	// creator or assignee; others get ErrForbidden. The author keeps the right
	// after leaving the task.
	DeleteComment(ctx context.Context, caller *domain.User, taskID, id int64) error
}

type commentServiceImpl struct {
	tasks    store.TaskStore
	comments store.CommentStore
	tx       store.Transactor
	logger   *slog.Logger
}

// NewCommentService creates a CommentService.
func NewCommentService(
	tasks store.TaskStore,
	comments store.CommentStore,
	tx store.Transactor,
	logger *slog.Logger,
) CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &commentServiceImpl{
		tasks:    tasks,
		comments: comments,
		tx:       tx,
		logger:   logger.With(slog.String("component", "comment_service")),
	}
}

func loadComment(ctx context.Context, comments store.CommentStore, taskID, id int64) (*domain.Comment, error) {
	c, err := comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.TaskID != taskID {
		return nil, store.ErrCommentNotFound
	}
	return c, nil
}

// CreateComment implements CommentService.
func (s *commentServiceImpl) CreateComment(
	ctx context.Context,
	caller *domain.User,
	taskID int64,
	text string,
) (*domain.Comment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "comment", "create"); err != nil {
		return nil, err
	}
	c, err := domain.NewComment(taskID, caller.ID, text)
	if err != nil {
		return nil, NewServiceError("comment", "create", err)
	}

	var created *domain.Comment
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := loadVisibleTask(ctx, s.tasks.WithTx(tx), caller, taskID); err != nil {
			return err
		}
		comments := s.comments.WithTx(tx)
		if err := comments.Create(ctx, c); err != nil {
			return err
		}
		created, err = comments.GetByID(ctx, c.ID)
		return err
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create comment",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID))
		}
		return nil, NewServiceError("comment", "create", err)
	}
	return created, nil
}

// GetComment implements CommentService.
func (s *commentServiceImpl) GetComment(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Comment, error) {
	if err := requireCaller(caller, "comment", "get"); err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("comment", "get", err)
	}
	c, err := loadComment(ctx, s.comments, taskID, id)
	if err != nil {
		return nil, NewServiceError("comment", "get", err)
	}
	return c, nil
}

// ListComments implements CommentService.
func (s *commentServiceImpl) ListComments(ctx context.Context, caller *domain.User, taskID int64) ([]*domain.Comment, error) {
	if err := requireCaller(caller, "comment", "list"); err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("comment", "list", err)
	}
	list, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("comment", "list", err)
	}
	return list, nil
}

// DeleteComment implements CommentService.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, caller *domain.User, taskID, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "comment", "delete"); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.tasks.WithTx(tx).GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		comments := s.comments.WithTx(tx)
		c, err := loadComment(ctx, comments, taskID, id)
		if err != nil {
			return err
		}
		if !domain.CanDeleteTaskChild(task, c.AuthorID, caller) {
			return ErrForbidden
		}
		return comments.Delete(ctx, id)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete comment",
				slog.String("error", err.Error()),
				slog.Int64("comment_id", id))
		}
		return NewServiceError("comment", "delete", err)
	}
	return nil
}
