package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across the generator, exporters and loader.
type ErrorCode string

const (
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeInvalid  ErrorCode = "INVALID"
	ErrCodeConflict ErrorCode = "CONFLICT"
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalidf wraps ErrInvalidConfig with a formatted detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrInvalidConfig      = NewError(ErrCodeInvalid, "invalid configuration")
	ErrDatasetNotFound    = NewError(ErrCodeNotFound, "dataset file not found")
	ErrUnknownCustomer    = NewError(ErrCodeNotFound, "unknown customer email")
	ErrWriteFailed        = NewError(ErrCodeInternal, "dataset write failed")
	ErrManifestMismatch   = NewError(ErrCodeConflict, "output differs from previous run with the same configuration")
	ErrQualityCheckFailed = NewError(ErrCodeInvalid, "quality checks failed")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
