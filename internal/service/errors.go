package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the services. The API layer maps them to HTTP
// status codes; callers check them with errors.Is.
var (
	// ErrForbidden indicates the resource exists but the caller may not
	// perform the operation. API layer maps this to 403.
	ErrForbidden = errors.New("operation not permitted")

	// ErrTagInUse indicates a tag cannot be deleted while tasks carry it.
	// API layer maps this to 409.
	ErrTagInUse = errors.New("tag is in use by tasks")

	// ErrInactiveUser indicates the account has been deactivated.
	ErrInactiveUser = errors.New("user is inactive")

	// ErrUnauthenticated indicates an operation was called without a caller.
	ErrUnauthenticated = errors.New("caller is not authenticated")
)

// ServiceError wraps a failure with the service and operation it came from.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       err,
	}
}
