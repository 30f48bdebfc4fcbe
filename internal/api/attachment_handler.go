package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/redact"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// multipartOverhead is allowed on top of the file size for part headers and
// boundaries.
const multipartOverhead = 64 << 10

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

// AttachmentHandler handles /api/tasks/{taskID}/attachments.
type AttachmentHandler struct {
	attachments    service.AttachmentService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler. Request bodies larger
// than maxUploadBytes plus multipart framing are cut off.
func NewAttachmentHandler(attachments service.AttachmentService, maxUploadBytes int64, logger *slog.Logger) *AttachmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentHandler{
		attachments:    attachments,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "attachment_handler")),
	}
}

// ListAttachments handles GET /api/tasks/{taskID}/attachments.
func (h *AttachmentHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}
	list, err := h.attachments.ListAttachments(r.Context(), caller, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list attachments")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(list))
}

// UploadAttachment handles POST /api/tasks/{taskID}/attachments. The file
// is read from the multipart field "file" and streamed to storage.
func (h *AttachmentHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID")
	if !ok {
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		log.Warn("invalid multipart request", redact.Attr(err))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Expected a multipart/form-data request")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Missing file field")
			return
		}
		if err != nil {
			HandleAPIError(w, r, newBadRequestOr(err), "")
			return
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		a, err := h.attachments.UploadAttachment(r.Context(), caller, ids[0], service.Upload{
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Content:     part,
		})
		_ = part.Close()
		if err != nil {
			HandleAPIError(w, r, err, "Failed to upload attachment")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusCreated, a)
		return
	}
}

// newBadRequestOr keeps size-limit errors intact and turns any other
// multipart framing error into a 400.
func newBadRequestOr(err error) error {
	if MapErrorToStatusCode(err) == http.StatusRequestEntityTooLarge {
		return err
	}
	return newBadRequest("Malformed multipart body")
}

// GetAttachment handles GET /api/tasks/{taskID}/attachments/{id}.
func (h *AttachmentHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}
	a, err := h.attachments.GetAttachment(r.Context(), caller, ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get attachment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, a)
}

// DownloadAttachment handles GET /api/tasks/{taskID}/attachments/{id}/download.
func (h *AttachmentHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}

	a, content, err := h.attachments.OpenAttachment(r.Context(), caller, ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to download attachment")
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		log.Warn("attachment download interrupted",
			slog.Int64("attachment_id", a.ID),
			redact.Attr(err))
	}
}

// DeleteAttachment handles DELETE /api/tasks/{taskID}/attachments/{id}.
func (h *AttachmentHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "taskID", "id")
	if !ok {
		return
	}
	if err := h.attachments.DeleteAttachment(r.Context(), caller, ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete attachment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
