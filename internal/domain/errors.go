package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service and repository layers - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrCycle        = errors.New("cycle detected")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (node, project, user, service)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// PathConflict builds a ConflictError for a node path collision.
func PathConflict(path, existingID string) *ConflictError {
	return &ConflictError{
		Message:      fmt.Sprintf("a node already exists at path %q", path),
		ResourceType: "node",
		ResourceID:   existingID,
	}
}
