// Package errors provides structured error types for the jarmill pipeline.
//
// Every fatal condition the pipeline can hit carries a machine-readable code so
// callers can tell a corrupt cache apart from a flaky network or a bad config
// without string matching.
//
// # Error Codes
//
//   - MISSING_INPUT: a required raw jar is absent in offline mode
//   - CORRUPT_ARCHIVE: an input archive is structurally broken
//   - TRANSFORM_FAILED: the remapper failed or wrote nothing
//   - CONFIGURATION: a prerequisite (mappings, merged jar, settings) is missing
//   - IO_ERROR, NETWORK_ERROR, CHECKSUM_MISMATCH: failures that say nothing
//     about cache integrity
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingInput, "missing jar(s); client: %t", ok)
//	if errors.Is(err, errors.ErrCodeMissingInput) {
//	    // tell the user where to put the jars
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
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
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"
	ErrCodeInvalidName    Code = "INVALID_NAME"
	ErrCodeConfiguration  Code = "CONFIGURATION"

	// Pipeline stage errors
	ErrCodeMissingInput    Code = "MISSING_INPUT"
	ErrCodeCorruptArchive  Code = "CORRUPT_ARCHIVE"
	ErrCodeTransformFailed Code = "TRANSFORM_FAILED"

	// Transient errors (no cache mutation)
	ErrCodeIO               Code = "IO_ERROR"
	ErrCodeNetwork          Code = "NETWORK_ERROR"
	ErrCodeChecksumMismatch Code = "CHECKSUM_MISMATCH"
	ErrCodeNotFound         Code = "NOT_FOUND"

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

// Is reports whether any *Error in err's chain carries the given code.
// Unlike a plain errors.As, it keeps walking past outer *Error values so a
// CORRUPT_ARCHIVE cause is still visible under an IO_ERROR wrapper.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix, followed by
// the cause if there is one. For other errors, returns the error string as-is.
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

// IsTransient reports whether err is a failure that leaves the cache intact
// (I/O, network or checksum problems) rather than one that implies corruption.
func IsTransient(err error) bool {
	switch GetCode(err) {
	case ErrCodeIO, ErrCodeNetwork, ErrCodeChecksumMismatch:
		return true
	}
	return false
}
