// Package errors provides coded domain errors for comicbridge.
//
// Usage:
//
//	// In adapters - classify failures
//	if resp.StatusCode == http.StatusUnauthorized {
//	    return errors.SourceUnavailablef("mylar rejected api key")
//	}
//
//	// In the pipeline - decide whether the run can continue
//	if errors.IsFatal(err) {
//	    return stats, err
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeDuplicateSeries:
//	        // re-list and match
//	    case errors.CodeAlreadyExists:
//	        // count as skip
//	    }
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeSourceUnavailable      Code = "SOURCE_UNAVAILABLE"
	CodeDestinationUnavailable Code = "DESTINATION_UNAVAILABLE"
	CodeDuplicateSeries        Code = "DUPLICATE_SERIES"
	CodeAlreadyExists          Code = "ALREADY_EXISTS"
	CodeNotFound               Code = "NOT_FOUND"
	CodeValidation             Code = "VALIDATION"
	CodeInternal               Code = "INTERNAL"
)

// Fatal reports whether an error with this code ends a migration run.
func (c Code) Fatal() bool {
	switch c {
	case CodeSourceUnavailable, CodeDestinationUnavailable, CodeValidation:
		return true
	default:
		return false
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrSourceUnavailable      = &Error{Code: CodeSourceUnavailable, Message: "source unavailable"}
	ErrDestinationUnavailable = &Error{Code: CodeDestinationUnavailable, Message: "destination unavailable"}
	ErrDuplicateSeries        = &Error{Code: CodeDuplicateSeries, Message: "series already exists"}
	ErrAlreadyExists          = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation             = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal               = &Error{Code: CodeInternal, Message: "internal error"}
)

// IsFatal reports whether err carries a code that aborts a run.
// Context cancellation is fatal as well.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code.Fatal()
	}
	return false
}

// CodeOf returns the code of the outermost domain error in err's chain,
// or CodeInternal when there is none.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// Constructor functions for creating errors with custom messages.

// SourceUnavailable creates a source unavailable error.
func SourceUnavailable(msg string) *Error {
	return &Error{Code: CodeSourceUnavailable, Message: msg}
}

// SourceUnavailablef creates a source unavailable error with formatted message.
func SourceUnavailablef(format string, args ...any) *Error {
	return &Error{Code: CodeSourceUnavailable, Message: fmt.Sprintf(format, args...)}
}

// DestinationUnavailable creates a destination unavailable error.
func DestinationUnavailable(msg string) *Error {
	return &Error{Code: CodeDestinationUnavailable, Message: msg}
}

// DestinationUnavailablef creates a destination unavailable error with formatted message.
func DestinationUnavailablef(format string, args ...any) *Error {
	return &Error{Code: CodeDestinationUnavailable, Message: fmt.Sprintf(format, args...)}
}

// DuplicateSeriesf creates a duplicate series error with formatted message.
func DuplicateSeriesf(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicateSeries, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExistsf creates an already exists error with formatted message.
func AlreadyExistsf(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
