// Package errors provides structured error types for crateview.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP adapter and the navigator
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror how the navigator treats a failure:
//   - INVALID_*: the package is malformed; the load is aborted
//   - FETCH_* / NETWORK_* / NOT_FOUND: retrieval failed; the load is aborted
//   - EXPANSION_FAILED: link hints degrade; the load continues
//   - ALREADY_INDEXED: the package lives under another locator
//   - SUPERSEDED: a newer navigation replaced this one
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCrate, "missing @graph")
//	if errors.Is(err, errors.ErrCodeInvalidCrate) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidCrate Code = "INVALID_CRATE"

	// Retrieval errors
	ErrCodeFetch          Code = "FETCH_FAILED"
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeAlreadyIndexed Code = "ALREADY_INDEXED"

	// Derivation errors
	ErrCodeExpansion Code = "EXPANSION_FAILED"

	// Navigation errors
	ErrCodeSuperseded Code = "SUPERSEDED"
	ErrCodeNoHistory  Code = "NO_HISTORY"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// The outermost *Error wins, so a wrapped cause never overrides its wrapper.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// AlreadyIndexedError reports that the requested package is already known
// under a different locator. Fetchers return it instead of a document;
// the navigator follows Alternate.
type AlreadyIndexedError struct {
	Locator   string // Locator that was requested
	Alternate string // Locator the package is available under
}

// Error implements the error interface.
func (e *AlreadyIndexedError) Error() string {
	return fmt.Sprintf("%s is already indexed as %s", e.Locator, e.Alternate)
}

// Code returns the error code for this error type.
func (e *AlreadyIndexedError) Code() Code {
	return ErrCodeAlreadyIndexed
}

// AsAlreadyIndexed extracts an *AlreadyIndexedError from err's chain.
func AsAlreadyIndexed(err error) (*AlreadyIndexedError, bool) {
	var ai *AlreadyIndexedError
	if errors.As(err, &ai) {
		return ai, true
	}
	return nil, false
}
