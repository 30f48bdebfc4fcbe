package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/platform/blob"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/service/auth"
	"github.com/phrazzld/takeatask-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusInternalServerError},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"inactive", service.ErrInactiveUser, http.StatusUnauthorized},
		{"no caller", service.NewServiceError("task", "list", service.ErrUnauthenticated), http.StatusUnauthorized},
		{"forbidden", service.NewServiceError("user", "create", service.ErrForbidden), http.StatusForbidden},
		{"foreign assignee", filter.ErrForeignAssignee, http.StatusForbidden},
		{"task missing", fmt.Errorf("load: %w", store.ErrTaskNotFound), http.StatusNotFound},
		{"attachment missing", store.ErrAttachmentNotFound, http.StatusNotFound},
		{"login taken", store.ErrLoginExists, http.StatusConflict},
		{"tag in use", service.ErrTagInUse, http.StatusConflict},
		{"referenced", store.ErrReferenced, http.StatusConflict},
		{"validation", domain.NewValidationError("name", "is required", nil), http.StatusBadRequest},
		{"status", domain.ErrInvalidStatus, http.StatusBadRequest},
		{"scope", filter.ErrInvalidScope, http.StatusBadRequest},
		{"bad request", newBadRequest("nope"), http.StatusBadRequest},
		{"blob too large", blob.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "An unexpected error occurred"},
		{"field validation", domain.NewValidationError("color", "must be a hex color", nil), "Invalid color: must be a hex color"},
		{"bare validation", &domain.ValidationError{Message: "nothing to update"}, "nothing to update"},
		{"bad request", newBadRequest("status and priority cannot be null"), "status and priority cannot be null"},
		{"task", service.NewServiceError("task", "get", store.ErrTaskNotFound), "Task not found"},
		{"login", store.ErrLoginExists, "Login already exists"},
		{"tag in use", service.ErrTagInUse, "Tag is used by tasks"},
		{"foreign assignee", filter.ErrForeignAssignee, "You may only filter by your own assignments"},
		{"too large", blob.ErrTooLarge, "Upload exceeds the size limit"},
		{"internal", errors.New("pq: password=hunter2 rejected"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(&TagRequest{Name: "Urgente", Color: "red"})
	require.Error(t, err)
	assert.Equal(t, "Invalid color: invalid color", SanitizeValidationError(err))

	err = shared.ValidateRequest(&LoginRequest{Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Invalid login: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
