package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested record was not found upstream.
	ErrNotFound = errors.New("not found")

	// ErrInvalidStructure indicates that a citation document is missing a
	// required structural element.
	ErrInvalidStructure = errors.New("invalid structure")

	// ErrServiceUnavailable indicates that the upstream service is unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// NotFoundError provides details about a record that could not be located.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// StructureError indicates that a citation document could not be decomposed
// because a required wrapper element is missing. It aborts parsing of that
// one document only; callers treat it like an unavailable record.
type StructureError struct {
	Element string
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	return fmt.Sprintf("required element %q not found in citation document", e.Element)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *StructureError) Unwrap() error {
	return ErrInvalidStructure
}

// ExternalAPIError provides details about an upstream E-utilities error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// Is matches any upstream API failure against ErrServiceUnavailable.
func (e *ExternalAPIError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewStructureError creates a new StructureError for the given element name.
func NewStructureError(element string) *StructureError {
	return &StructureError{Element: element}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
