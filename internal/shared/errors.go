package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks a bad request token or missing capability.
	ErrForbidden = errors.New("forbidden")
	// ErrExternalService marks mail or SMS provider failures and timeouts.
	ErrExternalService = errors.New("external service failure")
	// ErrIntegrity marks a removal blocked by records that still reference the item.
	ErrIntegrity = errors.New("integrity violation")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError carries a message safe to show to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

// Validation builds a ValidationError for field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AuthorizationError hides its reason from callers; Reason is for logs only.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return ErrForbidden.Error()
	}
	return "forbidden: " + e.Reason
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       any
}

// NotFound builds a NotFoundError.
func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ExternalServiceError wraps a provider failure.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

// Is matches ErrExternalService.
func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternalService }

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// IntegrityError reports how many records block a removal.
type IntegrityError struct {
	Resource string
	Key      string
	Count    int
}

func (e *IntegrityError) Error() string {
	noun := "records"
	if e.Count == 1 {
		noun = "record"
	}
	return fmt.Sprintf("%s %q is used by %d %s", e.Resource, e.Key, e.Count, noun)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }
