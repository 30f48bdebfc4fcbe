package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

func (h *harness) createTask(caller *domain.User, req map[string]any) *domain.Task {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/tasks", caller, req)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*domain.Task](h.t, rec)
}

func TestTaskHandler_RequiresAuthentication(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	requireError(t, h.do(http.MethodGet, "/api/tasks", nil, nil),
		http.StatusUnauthorized, "Authorization header required")

	rec := h.do(http.MethodGet, "/api/tasks", &domain.User{ID: 4242}, nil)
	requireError(t, rec, http.StatusUnauthorized, "Invalid token")
}

func TestTaskHandler_CreateAndGet(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	task := h.createTask(h.alice, map[string]any{
		"name":      "Write quarterly report",
		"priority":  "HIGH",
		"deadline":  "2030-06-30",
		"tag_names": []string{"Urgente", " Urgente "},
	})
	assert.Equal(t, domain.StatusToDo, task.Status)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, h.alice.ID, *task.AssigneeID)
	assert.Equal(t, h.alice.ID, task.CreatorID)
	require.NotNil(t, task.Deadline)
	assert.Equal(t, "2030-06-30", task.Deadline.Format(dateOnly))
	require.Len(t, task.Tags, 1)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	t.Run("detail embeds empty children", func(t *testing.T) {
		rec := h.do(http.MethodGet, path, h.alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.Equal(t, "Write quarterly report", body["name"])
		assert.Equal(t, []any{}, body["subtasks"])
		assert.Equal(t, []any{}, body["comments"])
		assert.Equal(t, []any{}, body["attachments"])
	})

	t.Run("hidden from non participants", func(t *testing.T) {
		requireError(t, h.do(http.MethodGet, path, h.bob, nil), http.StatusNotFound, "Task not found")
	})

	t.Run("visible to administrators", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, path, h.admin, nil).Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		requireError(t, h.do(http.MethodGet, "/api/tasks/abc", h.alice, nil),
			http.StatusBadRequest, "Invalid taskID: must be a positive integer")
	})
}

func TestTaskHandler_CreateValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{"short name", map[string]any{"name": "ab"}, "Invalid name: too short"},
		{"unknown status", map[string]any{"name": "Valid name", "status": "LATER"}, "Invalid status: invalid value"},
		{"bad deadline", map[string]any{"name": "Valid name", "deadline": "tomorrow"}, "Invalid deadline: must be an RFC 3339 timestamp or a YYYY-MM-DD date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, h.do(http.MethodPost, "/api/tasks", h.alice, tt.body), http.StatusBadRequest, tt.message)
		})
	}
}

func TestTaskHandler_List(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	mine := h.createTask(h.alice, map[string]any{"name": "Alice own task", "status": "IN_PROGRESS"})
	delegated := h.createTask(h.alice, map[string]any{"name": "Alice for Bob", "assignee_id": h.bob.ID})
	bobs := h.createTask(h.bob, map[string]any{"name": "Bob private task"})

	list := func(caller *domain.User, query string) []int64 {
		t.Helper()
		rec := h.do(http.MethodGet, "/api/tasks"+query, caller, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		tasks := decode[[]*domain.Task](t, rec)
		out := make([]int64, len(tasks))
		for i, task := range tasks {
			out[i] = task.ID
		}
		return out
	}

	assert.Equal(t, []int64{mine.ID, delegated.ID}, list(h.alice, ""))
	assert.Equal(t, []int64{delegated.ID, bobs.ID}, list(h.bob, ""))
	assert.Equal(t, []int64{mine.ID, delegated.ID, bobs.ID}, list(h.admin, ""))
	assert.Equal(t, []int64{mine.ID}, list(h.alice, "?status=in_progress"))
	assert.Equal(t, []int64{delegated.ID, bobs.ID}, list(h.admin, fmt.Sprintf("?assignee_id=%d", h.bob.ID)))
	assert.Empty(t, list(h.alice, "?keyword=nothing-matches"))

	t.Run("search", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/search?keyword=bob", h.admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]*domain.Task](t, rec), 2)
	})

	t.Run("foreign assignee filter", func(t *testing.T) {
		rec := h.do(http.MethodGet, fmt.Sprintf("/api/tasks?assignee_id=%d", h.bob.ID), h.alice, nil)
		requireError(t, rec, http.StatusForbidden, "You may only filter by your own assignments")
	})

	t.Run("invalid filters", func(t *testing.T) {
		requireError(t, h.do(http.MethodGet, "/api/tasks?priority=CRITICAL", h.alice, nil),
			http.StatusBadRequest, "Invalid priority")
		requireError(t, h.do(http.MethodGet, "/api/tasks?scope=everything", h.alice, nil),
			http.StatusBadRequest, "Invalid scope")
	})

	t.Run("stats", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/api/tasks/stats", h.alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode[domain.TaskStats](t, rec)
		assert.Equal(t, 1, stats.Total)
		assert.Equal(t, 1, stats.InProgress)

		rec = h.do(http.MethodGet, "/api/tasks/stats", h.admin, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, decode[domain.TaskStats](t, rec).Total)
	})
}

func TestTaskHandler_Update(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	task := h.createTask(h.alice, map[string]any{
		"name":        "Prepare launch",
		"assignee_id": h.bob.ID,
		"deadline":    "2030-01-15T12:00:00Z",
	})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	t.Run("absent fields are kept", func(t *testing.T) {
		rec := h.do(http.MethodPut, path, h.bob, `{"status":"DONE"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[*domain.Task](t, rec)
		assert.Equal(t, domain.StatusDone, got.Status)
		assert.Equal(t, "Prepare launch", got.Name)
		require.NotNil(t, got.Deadline)
		require.NotNil(t, got.AssigneeID)
		assert.Equal(t, h.bob.ID, *got.AssigneeID)
	})

	t.Run("assignee cannot hand the task to someone else", func(t *testing.T) {
		body := fmt.Sprintf(`{"assignee_id":%d}`, h.alice.ID)
		requireError(t, h.do(http.MethodPut, path, h.bob, body),
			http.StatusForbidden, "You are not allowed to perform this operation")
	})

	t.Run("null clears deadline and assignee", func(t *testing.T) {
		rec := h.do(http.MethodPut, path, h.alice, `{"deadline":null,"assignee_id":null}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[*domain.Task](t, rec)
		assert.Nil(t, got.Deadline)
		assert.Nil(t, got.AssigneeID)
	})

	t.Run("null status is rejected", func(t *testing.T) {
		requireError(t, h.do(http.MethodPut, path, h.alice, `{"status":null}`),
			http.StatusBadRequest, "status and priority cannot be null")
	})

	t.Run("unknown priority", func(t *testing.T) {
		requireError(t, h.do(http.MethodPut, path, h.alice, `{"priority":"SOMEDAY"}`),
			http.StatusBadRequest, "Invalid priority")
	})
}

func TestTaskHandler_Delete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	task := h.createTask(h.alice, map[string]any{"name": "Short lived"})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	requireError(t, h.do(http.MethodDelete, path, h.bob, nil), http.StatusNotFound, "Task not found")
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, path, h.alice, nil).Code)
	requireError(t, h.do(http.MethodGet, path, h.alice, nil), http.StatusNotFound, "Task not found")
}
