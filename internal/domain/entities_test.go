package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTag(t *testing.T) {
	tag, err := NewTag("Backend", "#3B82F6", "")
	require.NoError(t, err)
	assert.Equal(t, "Backend", tag.Name)

	_, err = NewTag("B", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTag("Backend", "blue", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeTagNames(t *testing.T) {
	got := NormalizeTagNames([]string{" Backend", "Urgente", "", "Backend ", "  "})
	assert.Equal(t, []string{"Backend", "Urgente"}, got)
}

func TestNewTaskDefaults(t *testing.T) {
	task, err := NewTask(7, "Fix bug", "", "", "", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusToDo, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, int64(7), *task.AssigneeID)
}

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask(7, "ab", "", "", "", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTask(0, "Fix bug", "", "", "", nil, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewTask(7, "Fix bug", "", "PAUSED", "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	assert.True(t, (&Task{Status: StatusInProgress, Deadline: &yesterday}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusDone, Deadline: &yesterday}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusToDo, Deadline: &tomorrow}).IsOverdue(now))
	assert.False(t, (&Task{Status: StatusToDo}).IsOverdue(now))
}

func TestTaskStatsAdd(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	var s TaskStats
	s.Add(&Task{Status: StatusDone, Deadline: &past}, now)
	s.Add(&Task{Status: StatusInProgress, Deadline: &past}, now)
	s.Add(&Task{Status: StatusToDo}, now)

	assert.Equal(t, TaskStats{Total: 3, Completed: 1, InProgress: 1, Overdue: 1}, s)
}

func TestChildValidation(t *testing.T) {
	_, err := NewSubtask(1, "   ", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewSubtask(1, strings.Repeat("x", 256), nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewComment(1, 2, "")
	assert.ErrorIs(t, err, ErrValidation)

	c, err := NewComment(1, 2, "looks good")
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.AuthorID)

	a := &Attachment{TaskID: 1, UploaderID: 2, Filename: "plan.pdf", ContentType: "application/pdf", Locator: "x.pdf"}
	assert.NoError(t, a.Validate())
	a.Filename = ""
	assert.ErrorIs(t, a.Validate(), ErrValidation)
}

func TestIsEmailShaped(t *testing.T) {
	assert.True(t, IsEmailShaped("bob@example.com"))
	assert.False(t, IsEmailShaped("bob"))
	assert.False(t, IsEmailShaped(""))
}
