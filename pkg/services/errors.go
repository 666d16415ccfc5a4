// Package services provides the trigger CRUD service and the integration
// assembly service, plus their standardized error types.
package services

import (
	"errors"
	"fmt"

	"github.com/tagrelay/tagrelay/pkg/persistence"
)

// Business logic errors indicating client mistakes (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrTriggerTypeRequired = errors.New("trigger type is required")
	ErrEventNameRequired   = errors.New("event name is required")
	ErrMappingKeyRequired  = errors.New("mapping key cannot be empty")
	ErrControlCharacters   = errors.New("value contains control characters")

	// ErrTriggerNotFound is returned when an update or delete references an
	// unknown instance id (404 Not Found).
	ErrTriggerNotFound = persistence.ErrTriggerNotFound
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTriggerTypeRequired) ||
		errors.Is(err, ErrEventNameRequired) ||
		errors.Is(err, ErrMappingKeyRequired) ||
		errors.Is(err, ErrControlCharacters)
}

// IsNotFound checks if an error should map to HTTP 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTriggerNotFound) ||
		errors.Is(err, persistence.ErrIntegrationNotFound)
}
