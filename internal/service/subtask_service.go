package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// SubtaskPatch is a partial update of a subtask. A null assignee clears it.
type SubtaskPatch struct {
	Description patch.Field[string]
	Completed   patch.Field[bool]
	AssigneeID  patch.Field[int64]
}

// SubtaskService manages the checklist of a task. Every operation requires
// the parent task to be visible to the caller, and a subtask addressed
// through the wrong parent is reported as not found.
type SubtaskService interface {
	CreateSubtask(ctx context.Context, caller *domain.User, taskID int64, description string, assigneeID *int64) (*domain.Subtask, error)
	GetSubtask(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Subtask, error)
	ListSubtasks(ctx context.Context, caller *domain.User, taskID int64) ([]*domain.Subtask, error)
	UpdateSubtask(ctx context.Context, caller *domain.User, taskID, id int64, p SubtaskPatch) (*domain.Subtask, error)
	DeleteSubtask(ctx context.Context, caller *domain.User, taskID, id int64) error
}

type subtaskServiceImpl struct {
	tasks    store.TaskStore
	subtasks store.SubtaskStore
	users    store.UserStore
	tx       store.Transactor
	logger   *slog.Logger
}

// NewSubtaskService creates a SubtaskService.
func NewSubtaskService(
	tasks store.TaskStore,
	subtasks store.SubtaskStore,
	users store.UserStore,
	tx store.Transactor,
	logger *slog.Logger,
) SubtaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &subtaskServiceImpl{
		tasks:    tasks,
		subtasks: subtasks,
		users:    users,
		tx:       tx,
		logger:   logger.With(slog.String("component", "subtask_service")),
	}
}

// loadSubtask returns the subtask when it belongs to taskID.
func loadSubtask(ctx context.Context, subtasks store.SubtaskStore, taskID, id int64) (*domain.Subtask, error) {
	st, err := subtasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.TaskID != taskID {
		return nil, store.ErrSubtaskNotFound
	}
	return st, nil
}

// CreateSubtask implements SubtaskService.
func (s *subtaskServiceImpl) CreateSubtask(
	ctx context.Context,
	caller *domain.User,
	taskID int64,
	description string,
	assigneeID *int64,
) (*domain.Subtask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "subtask", "create"); err != nil {
		return nil, err
	}
	st, err := domain.NewSubtask(taskID, description, assigneeID)
	if err != nil {
		return nil, NewServiceError("subtask", "create", err)
	}

	var created *domain.Subtask
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := loadVisibleTask(ctx, s.tasks.WithTx(tx), caller, taskID); err != nil {
			return err
		}
		if err := checkAssignee(ctx, s.users.WithTx(tx), assigneeID); err != nil {
			return err
		}
		subtasks := s.subtasks.WithTx(tx)
		if err := subtasks.Create(ctx, st); err != nil {
			return err
		}
		created, err = subtasks.GetByID(ctx, st.ID)
		return err
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create subtask",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID))
		}
		return nil, NewServiceError("subtask", "create", err)
	}
	log.Debug("subtask created", slog.Int64("task_id", taskID), slog.Int64("subtask_id", created.ID))
	return created, nil
}

// GetSubtask implements SubtaskService.
func (s *subtaskServiceImpl) GetSubtask(ctx context.Context, caller *domain.User, taskID, id int64) (*domain.Subtask, error) {
	if err := requireCaller(caller, "subtask", "get"); err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("subtask", "get", err)
	}
	st, err := loadSubtask(ctx, s.subtasks, taskID, id)
	if err != nil {
		return nil, NewServiceError("subtask", "get", err)
	}
	return st, nil
}

// ListSubtasks implements SubtaskService.
func (s *subtaskServiceImpl) ListSubtasks(ctx context.Context, caller *domain.User, taskID int64) ([]*domain.Subtask, error) {
	if err := requireCaller(caller, "subtask", "list"); err != nil {
		return nil, err
	}
	if _, err := loadVisibleTask(ctx, s.tasks, caller, taskID); err != nil {
		return nil, NewServiceError("subtask", "list", err)
	}
	list, err := s.subtasks.ListByTask(ctx, taskID)
	if err != nil {
		return nil, NewServiceError("subtask", "list", err)
	}
	return list, nil
}

// UpdateSubtask implements SubtaskService.
func (s *subtaskServiceImpl) UpdateSubtask(
	ctx context.Context,
	caller *domain.User,
	taskID, id int64,
	p SubtaskPatch,
) (*domain.Subtask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "subtask", "update"); err != nil {
		return nil, err
	}

	var updated *domain.Subtask
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := loadVisibleTask(ctx, s.tasks.WithTx(tx), caller, taskID); err != nil {
			return err
		}
		subtasks := s.subtasks.WithTx(tx)
		st, err := loadSubtask(ctx, subtasks, taskID, id)
		if err != nil {
			return err
		}
		p.Description.Apply(&st.Description)
		st.Description = strings.TrimSpace(st.Description)
		p.Completed.Apply(&st.Completed)
		if p.AssigneeID.Present() {
			next := p.AssigneeID.Ptr()
			if err := checkAssignee(ctx, s.users.WithTx(tx), next); err != nil {
				return err
			}
			st.AssigneeID = next
		}
		if err := st.Validate(); err != nil {
			return err
		}
		if err := subtasks.Update(ctx, st); err != nil {
			return err
		}
		updated, err = subtasks.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update subtask",
				slog.String("error", err.Error()),
				slog.Int64("subtask_id", id))
		}
		return nil, NewServiceError("subtask", "update", err)
	}
	return updated, nil
}

// DeleteSubtask implements SubtaskService.
func (s *subtaskServiceImpl) DeleteSubtask(ctx context.Context, caller *domain.User, taskID, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "subtask", "delete"); err != nil {
		return err
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := loadVisibleTask(ctx, s.tasks.WithTx(tx), caller, taskID); err != nil {
			return err
		}
		subtasks := s.subtasks.WithTx(tx)
		if _, err := loadSubtask(ctx, subtasks, taskID, id); err != nil {
			return err
		}
		return subtasks.Delete(ctx, id)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete subtask",
				slog.String("error", err.Error()),
				slog.Int64("subtask_id", id))
		}
		return NewServiceError("subtask", "delete", err)
	}
	return nil
}
