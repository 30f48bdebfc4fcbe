package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// TaskHandler handles /api/tasks.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks with the filter query parameters.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}

	criteria, err := parseTaskCriteria(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	tasks, err := h.tasks.ListTasks(r.Context(), caller, criteria)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(tasks))
}

// SearchTasks handles GET /api/tasks/search?keyword=.
func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	tasks, err := h.tasks.SearchTasks(r.Context(), caller, r.URL.Query().Get("keyword"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(tasks))
}

// Stats handles GET /api/tasks/stats.
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	stats, err := h.tasks.Stats(r.Context(), caller)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute task statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}

	var req TaskRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), caller, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, task)
}

// GetTask handles GET /api/tasks/{taskID}, embedding subtasks, comments and
// attachment metadata.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}

	detail, err := h.tasks.GetTaskDetail(r.Context(), caller, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTaskDetailResponse(detail))
}

// UpdateTask handles PUT /api/tasks/{taskID}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}
	p, err := req.toPatch()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), caller, ids[0], p)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{taskID}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), caller, ids[0]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
