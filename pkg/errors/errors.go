// Package errors provides structured error types for plugin resolution and
// installation.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - A single exposure policy deciding what reaches the caller
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each code names one failure class of the resolver:
//   - INVALID_INPUT: malformed package identifier
//   - VALIDATION_ERROR: malformed manifest structure or entry
//   - ACCESS_ERROR: permission denied reading a local manifest (never exposed)
//   - PARSING_ERROR: manifest is not valid structured text
//   - DEPENDENCY_ERROR: a dependency cycle was detected
//   - RESOURCE_LIMIT: a resource ceiling was exceeded
//   - INTERNAL_ERROR: unexpected I/O, network or installer failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "package identifier cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeValidation    Code = "VALIDATION_ERROR"
	ErrCodeAccess        Code = "ACCESS_ERROR"
	ErrCodeParsing       Code = "PARSING_ERROR"
	ErrCodeDependency    Code = "DEPENDENCY_ERROR"
	ErrCodeResourceLimit Code = "RESOURCE_LIMIT"
	ErrCodeInternal      Code = "INTERNAL_ERROR"

	// Used by registry clients before errors reach the taxonomy boundary.
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"
)

// GenericMessage is returned to callers in place of unsafe messages.
const GenericMessage = "an internal error occurred"

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
	Safe    bool   // Message may be shown to callers even for INTERNAL_ERROR
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// MarkSafe flags an INTERNAL_ERROR message as safe to expose.
func (e *Error) MarkSafe() *Error {
	e.Safe = true
	return e
}

// coder is implemented by the typed detail errors below.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed detail error
// with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no coded error is found in the chain.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Expose applies the caller-visible exposure policy. Access errors never leak
// their message, internal errors only when marked safe, and errors without a
// code are treated as internal.
func Expose(err error) (Code, string) {
	code := GetCode(err)
	switch code {
	case "":
		return ErrCodeInternal, GenericMessage
	case ErrCodeAccess:
		return code, "permission denied while reading plugin data"
	case ErrCodeInternal, ErrCodeNetwork, ErrCodeNotFound:
		var e *Error
		if errors.As(err, &e) && e.Safe {
			return ErrCodeInternal, e.Message
		}
		return ErrCodeInternal, GenericMessage
	}

	var d *DependencyError
	if errors.As(err, &d) {
		return code, d.Error()
	}
	var r *ResourceLimitError
	if errors.As(err, &r) {
		return code, r.Error()
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return code, v.Error()
	}
	return code, UserMessage(err)
}
