// Package errors provides structured error types for mangalayout.
//
// Errors carry a machine-readable [Code] so that the batch runner, the CLI and
// the HTTP API can decide how to react without string matching:
//   - GEOMETRY_*: a transform produced a degenerate polygon; the transform is
//     skipped and the page continues
//   - RESOURCE_*: referenced artwork or fonts are missing or unreadable; the
//     page fails but the batch continues
//   - SAMPLING_EXHAUSTED: a drawable region has no eligible points; the item
//     being placed is skipped
//   - CATALOGUE_*: an input catalogue is empty or malformed; fatal at startup
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCatalogueEmpty, "no background images in %s", dir)
//	if errors.Is(err, errors.ErrCodeCatalogueEmpty) {
//	    // stop the run
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResourceCorrupt, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeIndexRange    Code = "INDEX_OUT_OF_RANGE"

	// Generation errors
	ErrCodeGeometry          Code = "GEOMETRY_DEGENERATE"
	ErrCodeSamplingExhausted Code = "SAMPLING_EXHAUSTED"

	// Resource errors
	ErrCodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
	ErrCodeResourceCorrupt  Code = "RESOURCE_CORRUPT"

	// Catalogue errors
	ErrCodeCatalogueEmpty   Code = "CATALOGUE_EMPTY"
	ErrCodeCatalogueInvalid Code = "CATALOGUE_INVALID"

	// Storage errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeStore    Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err only invalidates the current item and
// generation of the surrounding page may continue.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeGeometry, ErrCodeSamplingExhausted:
		return true
	}
	return false
}

// Fatal reports whether err must stop a whole run rather than a single page.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeCatalogueEmpty, ErrCodeCatalogueInvalid, ErrCodeInvalidConfig:
		return true
	}
	return false
}
