package domain

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

// Task statuses.
const (
	StatusToDo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusBlocked    TaskStatus = "BLOCKED"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// ParseTaskStatus converts s to a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusBlocked, StatusInReview, StatusDone:
		return true
	}
	return false
}

// TaskPriority is the urgency of a task.
type TaskPriority string

// Task priorities.
const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

// ParseTaskPriority converts s to a TaskPriority.
func ParseTaskPriority(s string) (TaskPriority, error) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is the central work item. CreatorID never changes after creation.
type Task struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	AssigneeID   *int64       `json:"assignee_id,omitempty"`
	AssigneeName string       `json:"assignee_name,omitempty"`
	CreatorID    int64        `json:"creator_id"`
	CreatorName  string       `json:"creator_name,omitempty"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	Tags         []Tag        `json:"tags"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewTask creates a task owned by creatorID. Empty status and priority
// default to TODO and MEDIUM, and a nil assignee defaults to the creator.
func NewTask(
	creatorID int64,
	name, description string,
	status TaskStatus,
	priority TaskPriority,
	assigneeID *int64,
	deadline *time.Time,
) (*Task, error) {
	if status == "" {
		status = StatusToDo
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if assigneeID == nil {
		id := creatorID
		assigneeID = &id
	}
	now := time.Now().UTC()
	t := &Task{
		Name:        strings.TrimSpace(name),
		Description: description,
		Status:      status,
		Priority:    priority,
		AssigneeID:  assigneeID,
		CreatorID:   creatorID,
		Deadline:    deadline,
		Tags:        []Tag{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks required fields and enum values.
func (t *Task) Validate() error {
	if t.CreatorID <= 0 {
		return NewValidationError("creator_id", "is required", ErrInvalidID)
	}
	if err := checkLength("name", t.Name, 3, 150); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "must be one of TODO, IN_PROGRESS, BLOCKED, IN_REVIEW, DONE", ErrInvalidStatus)
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "must be one of LOW, MEDIUM, HIGH, URGENT", ErrInvalidPriority)
	}
	return nil
}

// IsAssignedTo reports whether userID is the task's assignee.
func (t *Task) IsAssignedTo(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// IsOverdue reports whether the task is unfinished and its deadline has passed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusDone && t.Deadline != nil && t.Deadline.Before(now)
}

// TagIDs returns the ids of the task's tags.
func (t *Task) TagIDs() []int64 {
	ids := make([]int64, len(t.Tags))
	for i, tag := range t.Tags {
		ids[i] = tag.ID
	}
	return ids
}

// TaskStats are the dashboard counters for a set of tasks.
type TaskStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Overdue    int `json:"overdue"`
}

// Add counts t into s.
func (s *TaskStats) Add(t *Task, now time.Time) {
	s.Total++
	switch t.Status {
	case StatusDone:
		s.Completed++
	case StatusInProgress:
		s.InProgress++
	}
	if t.IsOverdue(now) {
		s.Overdue++
	}
}
