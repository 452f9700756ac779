package domain

import (
	"errors"
	"fmt"
)

// Common error types
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// PermissionError is returned when an identity is resolved but the
// membership authority denies the operation
type PermissionError struct {
	WorkspaceID string `json:"workspace_id"`
	Message     string `json:"message"`
}

// Error implements the error interface
func (e *PermissionError) Error() string {
	return e.Message
}

// NewPermissionError creates a new permission error
func NewPermissionError(workspaceID, message string) *PermissionError {
	return &PermissionError{
		WorkspaceID: workspaceID,
		Message:     message,
	}
}

// ErrUnauthenticated is returned when no identity can be resolved for a request
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrProviderDisabled is returned by external provider adapters that are not configured
var ErrProviderDisabled = errors.New("provider is not configured")

// IsNotFound reports whether err is (or wraps) an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
