package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// CommentHandler handles /api/tasks/{taskID}/comments.
type CommentHandler struct {
	comments service.CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments service.CommentService, logger *slog.Logger) *CommentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentHandler{
		comments: comments,
		logger:   logger.With(slog.String("component", "comment_handler")),
	}
}

// ListComments handles GET /api/tasks/{taskID}/comments, newest first.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}
	list, err := h.comments.ListComments(r.Context(), caller, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list comments")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(list))
}

// CreateComment handles POST /api/tasks/{taskID}/comments.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}
	c, err := h.comments.CreateComment(r.Context(), caller, ids[0], req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, c)
}

// GetComment handles GET /api/tasks/{taskID}/comments/{id}.
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}
	c, err := h.comments.GetComment(r.Context(), caller, ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get comment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, c)
}

// DeleteComment handles DELETE /api/tasks/{taskID}/comments/{id}.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(r.Context(), caller, ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
