package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// SubtaskHandler handles /api/tasks/{taskID}/subtasks.
type SubtaskHandler struct {
	subtasks service.SubtaskService
	logger   *slog.Logger
}

// NewSubtaskHandler creates a new SubtaskHandler.
func NewSubtaskHandler(subtasks service.SubtaskService, logger *slog.Logger) *SubtaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubtaskHandler{
		subtasks: subtasks,
		logger:   logger.With(slog.String("component", "subtask_handler")),
	}
}

// ListSubtasks handles GET /api/tasks/{taskID}/subtasks.
func (h *SubtaskHandler) ListSubtasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}
	list, err := h.subtasks.ListSubtasks(r.Context(), caller, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list subtasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(list))
}

// CreateSubtask handles POST /api/tasks/{taskID}/subtasks.
func (h *SubtaskHandler) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}

	var req SubtaskRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}
	st, err := h.subtasks.CreateSubtask(r.Context(), caller, ids[0], req.Description, req.AssigneeID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create subtask")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, st)
}

// GetSubtask handles GET /api/tasks/{taskID}/subtasks/{id}.
func (h *SubtaskHandler) GetSubtask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}
	st, err := h.subtasks.GetSubtask(r.Context(), caller, ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get subtask")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, st)
}

// UpdateSubtask handles PUT /api/tasks/{taskID}/subtasks/{id}.
func (h *SubtaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}

	var req UpdateSubtaskRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}
	st, err := h.subtasks.UpdateSubtask(r.Context(), caller, ids[0], ids[1], service.SubtaskPatch{
		Description: req.Description,
		Completed:   req.Completed,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update subtask")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, st)
}

// DeleteSubtask handles DELETE /api/tasks/{taskID}/subtasks/{id}.
func (h *SubtaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}
	if err := h.subtasks.DeleteSubtask(r.Context(), caller, ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete subtask")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
