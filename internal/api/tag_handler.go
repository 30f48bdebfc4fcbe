package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// TagHandler handles /api/tags. Any authenticated user may manage tags.
type TagHandler struct {
	tags   service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags service.TagService, logger *slog.Logger) *TagHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagHandler{
		tags:   tags,
		logger: logger.With(slog.String("component", "tag_handler")),
	}
}

// ListTags handles GET /api/tags?query=.
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListTags(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tags")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(tags))
}

// CreateTag handles POST /api/tags.
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req TagRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}
	tag, err := h.tags.CreateTag(r.Context(), req.Name, req.Color, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, tag)
}

// GetTag handles GET /api/tags/{id}.
func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, logger.FromContextOrDefault(r.Context(), h.logger), "id")
	if !ok {
		return
	}
	tag, err := h.tags.GetTag(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tag)
}

// GetTagByName handles GET /api/tags/by-name/{name}.
func (h *TagHandler) GetTagByName(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tags.GetTagByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tag)
}

// UpdateTag handles PUT /api/tags/{id}.
func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ids, ok := pathIDs(w, r, log, "id")
	if !ok {
		return
	}

	var req UpdateTagRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}
	tag, err := h.tags.UpdateTag(r.Context(), ids[0], service.TagPatch{
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tag)
}

// DeleteTag handles DELETE /api/tags/{id}. Tags still used by tasks are
// rejected with 409.
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, logger.FromContextOrDefault(r.Context(), h.logger), "id")
	if !ok {
		return
	}
	if err := h.tags.DeleteTag(r.Context(), ids[0]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
