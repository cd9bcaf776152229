// Package errors provides typed domain errors.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error.
type Type string

const (
	// TypeValidation indicates missing or non-positive calculation inputs.
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeClassifierUnavailable indicates the external classifier timed out or failed.
	TypeClassifierUnavailable Type = "CLASSIFIER_UNAVAILABLE"

	// TypeUnknownDutyType indicates a duty type the duty formulas do not recognize.
	TypeUnknownDutyType Type = "UNKNOWN_DUTY_TYPE"

	// TypeConfig indicates malformed static data or configuration.
	TypeConfig Type = "CONFIG_ERROR"

	// TypeNotFound indicates a missing calculation record.
	TypeNotFound Type = "NOT_FOUND"

	// TypeQueue indicates a work-queue failure.
	TypeQueue Type = "QUEUE_ERROR"

	// TypeInternal indicates an internal error.
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context.
type Error struct {
	Type      Type                   `json:"type"`
	Message   string                 `json:"message"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error.
func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new formatted error.
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with context.
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// IsType checks if an error (anywhere in its chain) is of a specific type.
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsRetryable reports whether the error may be resolved by re-enqueueing.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(TypeValidation, message)
}

// ClassifierUnavailable creates a retryable classifier error.
func ClassifierUnavailable(message string, cause error) *Error {
	return &Error{
		Type:      TypeClassifierUnavailable,
		Message:   message,
		Cause:     cause,
		Retryable: true,
	}
}

// Config creates a configuration error.
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// NotFound creates a not found error.
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Internal creates an internal error.
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
