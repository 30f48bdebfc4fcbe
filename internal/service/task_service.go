package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/events"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/platform/blob"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// TaskInput carries the fields of a new task. Tags may be given by ID, by
// name (created when missing) or both.
type TaskInput struct {
	Name        string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	AssigneeID  *int64
	Deadline    *time.Time
	TagIDs      []int64
	TagNames    []string
}

// TaskPatch is a partial update of a task. A null assignee unassigns the
// task; a null deadline clears it. When TagIDs or TagNames is present the
// tag set is replaced by their union.
type TaskPatch struct {
	Name        patch.Field[string]
	Description patch.Field[string]
	Status      patch.Field[domain.TaskStatus]
	Priority    patch.Field[domain.TaskPriority]
	AssigneeID  patch.Field[int64]
	Deadline    patch.Field[time.Time]
	TagIDs      patch.Field[[]int64]
	TagNames    patch.Field[[]string]
}

// TaskDetail is a task together with its children.
type TaskDetail struct {
	Task        *domain.Task
	Subtasks    []*domain.Subtask
	Comments    []*domain.Comment
	Attachments []*domain.Attachment
}

// TaskStores groups the stores the task service reads and writes.
type TaskStores struct {
	Tasks       store.TaskStore
	Tags        store.TagStore
	Users       store.UserStore
	Subtasks    store.SubtaskStore
	Comments    store.CommentStore
	Attachments store.AttachmentStore
}

// TaskService provides task operations scoped to a caller. Tasks the caller
// may not see are reported as store.ErrTaskNotFound.
type TaskService interface {
	CreateTask(ctx context.Context, caller *domain.User, in TaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, caller *domain.User, id int64) (*domain.Task, error)

	// GetTaskDetail returns the task with its subtasks, comments and
	// attachment metadata.
	GetTaskDetail(ctx context.Context, caller *domain.User, id int64) (*TaskDetail, error)

	// ListTasks returns the visible tasks matching c, ordered by ID.
	// Returns filter.ErrForeignAssignee when a standard user filters by
	// another user's assignments.
	ListTasks(ctx context.Context, caller *domain.User, c filter.Criteria) ([]*domain.Task, error)

	// SearchTasks is ListTasks with only a keyword and the widest scope.
	SearchTasks(ctx context.Context, caller *domain.User, keyword string) ([]*domain.Task, error)

	UpdateTask(ctx context.Context, caller *domain.User, id int64, p TaskPatch) (*domain.Task, error)

	// DeleteTask removes the task with its children. Attachment content is
	// removed from the blob store after commit, best effort.
	DeleteTask(ctx context.Context, caller *domain.User, id int64) error

	// Stats counts every task for administrators and the caller's
	// assignments for everyone else.
	Stats(ctx context.Context, caller *domain.User) (domain.TaskStats, error)
}

type taskServiceImpl struct {
	stores  TaskStores
	blobs   blob.Store
	emitter events.EventEmitter
	tx      store.Transactor
	now     func() time.Time
	logger  *slog.Logger
}

// NewTaskService creates a TaskService. A nil emitter disables notifications.
func NewTaskService(
	stores TaskStores,
	blobs blob.Store,
	emitter events.EventEmitter,
	tx store.Transactor,
	logger *slog.Logger,
) TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &taskServiceImpl{
		stores:  stores,
		blobs:   blobs,
		emitter: emitter,
		tx:      tx,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With(slog.String("component", "task_service")),
	}
}

// loadVisibleTask fetches a task and hides it when caller may not access it.
func loadVisibleTask(ctx context.Context, tasks store.TaskStore, caller *domain.User, id int64) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessTask(task, caller) {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(ctx context.Context, caller *domain.User, in TaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "task", "create"); err != nil {
		return nil, err
	}
	task, err := domain.NewTask(caller.ID, in.Name, in.Description, in.Status, in.Priority, in.AssigneeID, in.Deadline)
	if err != nil {
		return nil, NewServiceError("task", "create", err)
	}

	var created *domain.Task
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.stores.Tasks.WithTx(tx)
		if err := checkAssignee(ctx, s.stores.Users.WithTx(tx), task.AssigneeID); err != nil {
			return err
		}
		tags, err := resolveTags(ctx, s.stores.Tags.WithTx(tx), in.TagIDs, in.TagNames)
		if err != nil {
			return err
		}
		task.Tags = tags
		if err := tasks.Create(ctx, task); err != nil {
			return err
		}
		created, err = tasks.GetByID(ctx, task.ID)
		return err
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create task",
				slog.String("error", err.Error()),
				slog.Int64("creator_id", caller.ID))
		}
		return nil, NewServiceError("task", "create", err)
	}

	log.Info("task created",
		slog.Int64("task_id", created.ID),
		slog.Int64("creator_id", caller.ID))

	if created.AssigneeID != nil && *created.AssigneeID != created.CreatorID {
		s.emit(ctx, events.TypeTaskAssigned, events.TaskAssigned{
			TaskID:     created.ID,
			TaskName:   created.Name,
			AssigneeID: *created.AssigneeID,
			ActorID:    caller.ID,
		})
	}
	return created, nil
}

// GetTask implements TaskService.
func (s *taskServiceImpl) GetTask(ctx context.Context, caller *domain.User, id int64) (*domain.Task, error) {
	if err := requireCaller(caller, "task", "get"); err != nil {
		return nil, err
	}
	task, err := loadVisibleTask(ctx, s.stores.Tasks, caller, id)
	if err != nil {
		return nil, NewServiceError("task", "get", err)
	}
	return task, nil
}

// GetTaskDetail implements TaskService.
func (s *taskServiceImpl) GetTaskDetail(ctx context.Context, caller *domain.User, id int64) (*TaskDetail, error) {
	if err := requireCaller(caller, "task", "get_detail"); err != nil {
		return nil, err
	}
	task, err := loadVisibleTask(ctx, s.stores.Tasks, caller, id)
	if err != nil {
		return nil, NewServiceError("task", "get_detail", err)
	}

	d := &TaskDetail{Task: task}
	if d.Subtasks, err = s.stores.Subtasks.ListByTask(ctx, id); err != nil {
		return nil, NewServiceError("task", "get_detail", err)
	}
	if d.Comments, err = s.stores.Comments.ListByTask(ctx, id); err != nil {
		return nil, NewServiceError("task", "get_detail", err)
	}
	if d.Attachments, err = s.stores.Attachments.ListByTask(ctx, id); err != nil {
		return nil, NewServiceError("task", "get_detail", err)
	}
	return d, nil
}

// ListTasks implements TaskService.
func (s *taskServiceImpl) ListTasks(ctx context.Context, caller *domain.User, c filter.Criteria) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "task", "list"); err != nil {
		return nil, err
	}
	preds, err := filter.Build(c, caller)
	if err != nil {
		log.Debug("rejected task filter",
			slog.String("error", err.Error()),
			slog.Int64("caller_id", caller.ID))
		return nil, NewServiceError("task", "list", err)
	}
	tasks, err := s.stores.Tasks.List(ctx, preds)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, NewServiceError("task", "list", err)
	}
	return tasks, nil
}

// SearchTasks implements TaskService.
func (s *taskServiceImpl) SearchTasks(ctx context.Context, caller *domain.User, keyword string) ([]*domain.Task, error) {
	return s.ListTasks(ctx, caller, filter.Criteria{Keyword: keyword, Scope: filter.ScopeAll})
}

// UpdateTask implements TaskService.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	caller *domain.User,
	id int64,
	p TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "task", "update"); err != nil {
		return nil, err
	}

	var before, after *domain.Task
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.stores.Tasks.WithTx(tx)
		task, err := loadVisibleTask(ctx, tasks, caller, id)
		if err != nil {
			return err
		}
		snapshot := *task
		before = &snapshot

		if p.AssigneeID.Present() {
			next := p.AssigneeID.Ptr()
			if !domain.CanReassignTask(task, caller, next) {
				return ErrForbidden
			}
			if err := checkAssignee(ctx, s.stores.Users.WithTx(tx), next); err != nil {
				return err
			}
			task.AssigneeID = next
		}
		p.Name.Apply(&task.Name)
		task.Name = strings.TrimSpace(task.Name)
		p.Description.Apply(&task.Description)
		p.Status.Apply(&task.Status)
		p.Priority.Apply(&task.Priority)
		if p.Deadline.Present() {
			task.Deadline = p.Deadline.Ptr()
		}
		if p.TagIDs.Present() || p.TagNames.Present() {
			ids, _ := p.TagIDs.Value()
			names, _ := p.TagNames.Value()
			if task.Tags, err = resolveTags(ctx, s.stores.Tags.WithTx(tx), ids, names); err != nil {
				return err
			}
		}
		if err := task.Validate(); err != nil {
			return err
		}
		if err := tasks.Update(ctx, task); err != nil {
			return err
		}
		after, err = tasks.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return nil, NewServiceError("task", "update", err)
	}

	log.Info("task updated", slog.Int64("task_id", id), slog.Int64("caller_id", caller.ID))
	s.emitChanges(ctx, caller, before, after)
	return after, nil
}

func (s *taskServiceImpl) emitChanges(ctx context.Context, caller *domain.User, before, after *domain.Task) {
	if after.AssigneeID != nil && !before.IsAssignedTo(*after.AssigneeID) {
		s.emit(ctx, events.TypeTaskAssigned, events.TaskAssigned{
			TaskID:     after.ID,
			TaskName:   after.Name,
			AssigneeID: *after.AssigneeID,
			ActorID:    caller.ID,
		})
	}
	if before.Status != after.Status {
		recipients := []int64{after.CreatorID}
		if after.AssigneeID != nil {
			recipients = append(recipients, *after.AssigneeID)
		}
		s.emit(ctx, events.TypeTaskStatusChanged, events.TaskStatusChanged{
			TaskID:       after.ID,
			TaskName:     after.Name,
			From:         before.Status,
			To:           after.Status,
			RecipientIDs: recipients,
			ActorID:      caller.ID,
		})
	}
}

// emit publishes an event. Failures are logged and never reach the caller.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, payload any) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, payload)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Warn("failed to emit event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, caller *domain.User, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := requireCaller(caller, "task", "delete"); err != nil {
		return err
	}

	var attachments []*domain.Attachment
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		tasks := s.stores.Tasks.WithTx(tx)
		if _, err := loadVisibleTask(ctx, tasks, caller, id); err != nil {
			return err
		}
		var err error
		if attachments, err = s.stores.Attachments.WithTx(tx).ListByTask(ctx, id); err != nil {
			return err
		}
		return tasks.Delete(ctx, id)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", id))
		}
		return NewServiceError("task", "delete", err)
	}

	for _, a := range attachments {
		removeBlob(ctx, log, s.blobs, a)
	}
	log.Info("task deleted",
		slog.Int64("task_id", id),
		slog.Int("attachments", len(attachments)))
	return nil
}

// Stats implements TaskService.
func (s *taskServiceImpl) Stats(ctx context.Context, caller *domain.User) (domain.TaskStats, error) {
	if err := requireCaller(caller, "task", "stats"); err != nil {
		return domain.TaskStats{}, err
	}
	var assignee *int64
	if !caller.IsAdmin() {
		id := caller.ID
		assignee = &id
	}
	stats, err := s.stores.Tasks.Stats(ctx, assignee, s.now())
	if err != nil {
		return domain.TaskStats{}, NewServiceError("task", "stats", err)
	}
	return stats, nil
}

// checkAssignee verifies that a non-nil assignee refers to an existing user.
func checkAssignee(ctx context.Context, users store.UserStore, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := users.GetByID(ctx, *id); err != nil {
		if store.IsNotFoundError(err) {
			return domain.NewValidationError("assignee_id", fmt.Sprintf("user %d does not exist", *id), nil)
		}
		return err
	}
	return nil
}

// resolveTags loads the tags named by ids and upserts the ones named by
// names, returning the union without duplicates.
func resolveTags(ctx context.Context, tags store.TagStore, ids []int64, names []string) ([]domain.Tag, error) {
	out := []domain.Tag{}
	seen := make(map[int64]bool)
	add := func(t *domain.Tag) {
		if !seen[t.ID] {
			seen[t.ID] = true
			out = append(out, *t)
		}
	}

	for _, id := range ids {
		tag, err := tags.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrTagNotFound) {
				return nil, domain.NewValidationError("tag_ids", fmt.Sprintf("tag %d does not exist", id), nil)
			}
			return nil, err
		}
		add(tag)
	}
	upserted, err := upsertTags(ctx, tags, domain.NormalizeTagNames(names))
	if err != nil {
		return nil, err
	}
	for _, t := range upserted {
		add(t)
	}
	return out, nil
}

// removeBlob deletes attachment content, logging failures.
func removeBlob(ctx context.Context, log *slog.Logger, blobs blob.Store, a *domain.Attachment) {
	if err := blobs.Delete(ctx, a.Locator); err != nil {
		log.Warn("failed to remove attachment content",
			slog.Int64("attachment_id", a.ID),
			slog.String("error", err.Error()))
	}
}
