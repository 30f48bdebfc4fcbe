package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/platform/blob"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/service/auth"
	"github.com/phrazzld/takeatask-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the errors themselves.
func MapErrorToStatusCode(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusInternalServerError

	// Authentication
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, service.ErrInactiveUser),
		errors.Is(err, service.ErrUnauthenticated),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, filter.ErrForeignAssignee):
		return http.StatusForbidden

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err),
		errors.Is(err, service.ErrTagInUse),
		errors.Is(err, store.ErrReferenced):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, filter.ErrInvalidScope),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest

	case errors.Is(err, blob.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge

	default:
		return http.StatusInternalServerError
	}
}

// errBadRequest marks malformed requests detected in this package.
var errBadRequest = errors.New("malformed request")

// badRequest wraps a client mistake so it maps to 400 with message shown.
type badRequest struct {
	message string
}

func (e *badRequest) Error() string { return e.message }

func (e *badRequest) Is(target error) bool { return target == errBadRequest }

func newBadRequest(format string, args ...any) error {
	return &badRequest{message: fmt.Sprintf(format, args...)}
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// messages are produced by this application and are passed through; anything
// else is replaced by a fixed text.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var ve *domain.ValidationError
	var br *badRequest
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &br):
		return br.message
	case errors.As(err, &ve):
		if ve.Field == "" {
			return ve.Message
		}
		return fmt.Sprintf("Invalid %s: %s", ve.Field, ve.Message)
	case errors.As(err, &verrs):
		return SanitizeValidationError(err)

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, auth.ErrMissingToken):
		return "Authorization header required"
	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken):
		return "Invalid refresh token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, service.ErrInactiveUser):
		return "Account is inactive"
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, filter.ErrForeignAssignee):
		return "You may only filter by your own assignments"
	case errors.Is(err, service.ErrForbidden):
		return "You are not allowed to perform this operation"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrTagNotFound):
		return "Tag not found"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrSubtaskNotFound):
		return "Subtask not found"
	case errors.Is(err, store.ErrCommentNotFound):
		return "Comment not found"
	case errors.Is(err, store.ErrAttachmentNotFound):
		return "Attachment not found"
	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrLoginExists):
		return "Login already exists"
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, store.ErrTagNameExists):
		return "Tag name already exists"
	case store.IsDuplicateError(err):
		return "Resource already exists"
	case errors.Is(err, service.ErrTagInUse):
		return "Tag is used by tasks"
	case errors.Is(err, store.ErrReferenced):
		return "Resource is still referenced"

	case errors.Is(err, domain.ErrInvalidRole):
		return "Invalid role"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "Invalid status"
	case errors.Is(err, domain.ErrInvalidPriority):
		return "Invalid priority"
	case errors.Is(err, filter.ErrInvalidScope):
		return "Invalid scope"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case MapErrorToStatusCode(err) == http.StatusRequestEntityTooLarge:
		return "Upload exceeds the size limit"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first failing field. Other errors yield "Validation error".
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "e164", "numeric":
		return "invalid number"
	case "hexcolor":
		return "invalid color"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. fallback replaces the generic
// message of 500 responses when set.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		msg = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized && strings.HasPrefix(r.URL.Path, "/api/auth/") {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err, opts...)
}
