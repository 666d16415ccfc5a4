// Package persistence defines the persisted configuration document, its
// legacy-shape migration, and the store implementations' shared contract.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all store implementations use.
var (
	// ErrTriggerNotFound indicates no configured trigger exists with the
	// given id under the slug.
	ErrTriggerNotFound = errors.New("trigger not found")

	// ErrIntegrationNotFound indicates the slug has no configuration entry.
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrConflict indicates a save raced with another writer and lost.
	ErrConflict = errors.New("configuration version conflict")

	// ErrMalformedDocument indicates the stored document cannot be decoded.
	ErrMalformedDocument = errors.New("malformed configuration document")
)

// ConflictError reports a stale save against the shared configuration
// document. Callers reload and retry.
type ConflictError struct {
	Expected int64
	Current  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("configuration version conflict: save expected version %d, store holds %d", e.Expected, e.Current)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// StoreError wraps store operation failures with context.
type StoreError struct {
	Op   string // Operation being performed (e.g. "Load", "Save")
	Slug string // Integration slug if applicable
	Err  error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Slug != "" {
		return fmt.Sprintf("%s operation failed for integration %s: %v", e.Op, e.Slug, e.Err)
	}

	return fmt.Sprintf("%s operation failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsTriggerNotFound checks if an error indicates a missing trigger.
func IsTriggerNotFound(err error) bool {
	return errors.Is(err, ErrTriggerNotFound)
}

// IsConflict checks if an error indicates a lost write race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsMalformedDocument checks if an error indicates undecodable stored data.
func IsMalformedDocument(err error) bool {
	return errors.Is(err, ErrMalformedDocument)
}
