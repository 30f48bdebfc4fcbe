package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/platform/logger"
	"github.com/phrazzld/takeatask-api/internal/service"
)

// UserHandler handles /api/users.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// ListUsers handles GET /api/users?query=.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, orEmpty(users))
}

// CreateUser handles POST /api/users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}

	var req CreateUserRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.CreateUser(r.Context(), caller, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, user)
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r, logger.FromContextOrDefault(r.Context(), h.logger))
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, caller)
}

// GetUser handles GET /api/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathIDs(w, r, logger.FromContextOrDefault(r.Context(), h.logger), "id")
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// GetUserByLogin handles GET /api/users/by-login/{login}.
func (h *UserHandler) GetUserByLogin(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByLogin(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}
	p, err := req.toPatch()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.UpdateUser(r.Context(), caller, ids[0], p)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	caller, ok := requireCaller(w, r, log)
	if !ok {
		return
	}
	ids, ok := pathIDs(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.users.DeleteUser(r.Context(), caller, ids[0]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
