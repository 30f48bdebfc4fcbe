package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
)

// TaskStore defines the interface for task persistence.
// Returned tasks carry their tags and the creator and assignee names.
type TaskStore interface {
	// Create inserts the task and its tag links (Tags must already exist).
	Create(ctx context.Context, task *domain.Task) error

	// GetByID returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns the tasks satisfying every predicate, ordered by ID.
	List(ctx context.Context, preds []filter.Predicate) ([]*domain.Task, error)

	// Update writes the mutable fields and replaces the tag links.
	// The creator is never changed.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes the task together with its subtasks, comments,
	// attachments rows and tag links.
	Delete(ctx context.Context, id int64) error

	// Stats counts tasks, restricted to assigneeID when it is not nil.
	// Overdue is relative to now.
	Stats(ctx context.Context, assigneeID *int64, now time.Time) (domain.TaskStats, error)

	// Count returns the number of tasks.
	Count(ctx context.Context) (int, error)

	WithTx(tx *sql.Tx) TaskStore
}

// SubtaskStore defines the interface for subtask persistence.
type SubtaskStore interface {
	Create(ctx context.Context, subtask *domain.Subtask) error
	GetByID(ctx context.Context, id int64) (*domain.Subtask, error)
	ListByTask(ctx context.Context, taskID int64) ([]*domain.Subtask, error)
	// Update writes description, completion and assignee; the parent never changes.
	Update(ctx context.Context, subtask *domain.Subtask) error
	Delete(ctx context.Context, id int64) error
	WithTx(tx *sql.Tx) SubtaskStore
}

// CommentStore defines the interface for comment persistence.
type CommentStore interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)
	// ListByTask returns comments newest first.
	ListByTask(ctx context.Context, taskID int64) ([]*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
	WithTx(tx *sql.Tx) CommentStore
}

// AttachmentStore defines the interface for attachment metadata persistence.
// Content lives in a blob store.
type AttachmentStore interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)
	ListByTask(ctx context.Context, taskID int64) ([]*domain.Attachment, error)
	Delete(ctx context.Context, id int64) error
	WithTx(tx *sql.Tx) AttachmentStore
}
