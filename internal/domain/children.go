package domain

import (
	"strings"
	"time"
)

// Subtask is a checklist item of a task.
type Subtask struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	Description  string    `json:"description"`
	Completed    bool      `json:"completed"`
	AssigneeID   *int64    `json:"assignee_id,omitempty"`
	AssigneeName string    `json:"assignee_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSubtask creates an incomplete subtask of taskID.
func NewSubtask(taskID int64, description string, assigneeID *int64) (*Subtask, error) {
	now := time.Now().UTC()
	s := &Subtask{
		TaskID:      taskID,
		Description: strings.TrimSpace(description),
		AssigneeID:  assigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the parent id and description.
func (s *Subtask) Validate() error {
	if s.TaskID <= 0 {
		return NewValidationError("task_id", "is required", ErrInvalidID)
	}
	return checkLength("description", s.Description, 1, 255)
}

// Comment is a note left on a task by its author.
type Comment struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"task_id"`
	AuthorID   int64     `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewComment creates a comment by authorID on taskID.
func NewComment(taskID, authorID int64, text string) (*Comment, error) {
	now := time.Now().UTC()
	c := &Comment{
		TaskID:    taskID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the references and that the text is not blank.
func (c *Comment) Validate() error {
	if c.TaskID <= 0 {
		return NewValidationError("task_id", "is required", ErrInvalidID)
	}
	if c.AuthorID <= 0 {
		return NewValidationError("author_id", "is required", ErrInvalidID)
	}
	return required("text", c.Text)
}

// DefaultAttachmentContentType is recorded when no MIME type is known.
const DefaultAttachmentContentType = "application/octet-stream"

// Attachment is the metadata of a file uploaded to a task.
// Locator identifies the content in the blob store and is never exposed.
type Attachment struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	Locator      string    `json:"-"`
	UploaderID   int64     `json:"uploader_id"`
	UploaderName string    `json:"uploader_name,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Validate checks references and metadata lengths.
func (a *Attachment) Validate() error {
	if a.TaskID <= 0 {
		return NewValidationError("task_id", "is required", ErrInvalidID)
	}
	if a.UploaderID <= 0 {
		return NewValidationError("uploader_id", "is required", ErrInvalidID)
	}
	if err := checkLength("filename", a.Filename, 1, 255); err != nil {
		return err
	}
	if err := checkLength("content_type", a.ContentType, 1, 100); err != nil {
		return err
	}
	if a.Size < 0 {
		return NewValidationError("size", "cannot be negative", nil)
	}
	return required("locator", a.Locator)
}
