// Package apperrors defines the error taxonomy shared by services and the
// HTTP layer. Services return *AppError values; controllers turn them into
// status codes and response envelopes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindUpload          Kind = "upload"
	KindInternal        Kind = "internal"
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is an error with a kind, a client-safe message and an optional cause
type AppError struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError of the same kind
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Status maps the kind onto an HTTP status code
func (e *AppError) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a kind onto an HTTP status code
func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict, KindUpload:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports invalid input, optionally per field
func Validation(message string, fields ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// Field is shorthand for a validation error on a single field
func Field(field, message string) *AppError {
	return Validation("Validation failed", FieldError{Field: field, Message: message})
}

func Unauthenticated(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// Conflict reports a uniqueness violation on field
func Conflict(field, message string) *AppError {
	return &AppError{
		Kind:    KindConflict,
		Message: message,
		Fields:  []FieldError{{Field: field, Message: message}},
	}
}

func Upload(message string) *AppError {
	return &AppError{Kind: KindUpload, Message: message}
}

// Internal wraps an unexpected failure; message is what the client sees
func Internal(err error, message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// As extracts an *AppError from err, wrapping unknown errors as internal
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err, "Internal server error")
}

// IsKind reports whether err is an *AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
