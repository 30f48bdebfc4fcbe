package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same login).
	ErrDuplicate = errors.New("entity already exists")

	// ErrReferenced is returned when an entity cannot be removed because
	// other rows still point at it.
	ErrReferenced = errors.New("entity is still referenced")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or violates a check constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors

	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
	ErrTagNotFound        = fmt.Errorf("%w: tag", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("%w: task", ErrNotFound)
	ErrSubtaskNotFound    = fmt.Errorf("%w: subtask", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("%w: comment", ErrNotFound)
	ErrAttachmentNotFound = fmt.Errorf("%w: attachment", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrLoginExists indicates that a user with the given login already exists.
	ErrLoginExists = fmt.Errorf("%w: login", ErrDuplicate)

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrTagNameExists indicates that a tag with the given name already exists.
	ErrTagNameExists = fmt.Errorf("%w: tag name", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "user", "task")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
