// Package errors provides structured error types for the composer application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and library surface
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - NO_*: a required piece of state is absent
//   - MULTIPLE_*: a singular slot holds more than one value
//   - INVALID_*: input validation failures
//   - *_ERROR: failures inside a pipeline stage
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNoBackground, "template has no background")
//	if errors.Is(err, errors.ErrCodeNoBackground) {
//	    // Handle missing background
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRasterize, origErr, "rasterize %s", svgPath)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Template/layer structural errors
	ErrCodeNoBackground     Code = "NO_BACKGROUND"
	ErrCodeBackgroundInUse  Code = "BACKGROUND_IN_USE"
	ErrCodeMultipleLayers   Code = "MULTIPLE_LAYERS_OF_TYPE"
	ErrCodeOutputDirInvalid Code = "OUTPUT_DIR_INVALID"
	ErrCodeTemplateParse    Code = "TEMPLATE_PARSE_ERROR"

	// Composition errors
	ErrCodeMultiplePrimary      Code = "MULTIPLE_PRIMARY_ITEMS"
	ErrCodeMultiplePresentation Code = "MULTIPLE_PRESENTATION_ITEMS"
	ErrCodeInvalidComposition   Code = "INVALID_COMPOSITION"

	// Render pipeline errors
	ErrCodeLayerSlotMismatch Code = "LAYER_SLOT_MISMATCH"
	ErrCodeRasterize         Code = "RASTERIZE_ERROR"
	ErrCodeZoomExtraction    Code = "ZOOM_EXTRACTION_ERROR"
	ErrCodeEncode            Code = "ENCODE_ERROR"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPattern Code = "INVALID_PATTERN"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Sync errors
	ErrCodeSync Code = "SYNC_ERROR"

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
