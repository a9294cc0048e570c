// Package errors provides structured error types for forgestats.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the fetch engine, CLI, and API
//   - Machine-readable error codes for programmatic handling
//   - Distinguishing transient failures (worth retrying) from permanent ones
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found on the forge
//   - NETWORK_*, TIMEOUT: Transport-level failures
//   - RATE_LIMITED: Request budget exhausted, recoverable by waiting
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRepo, "invalid repository: %s", ref)
//	if errors.Is(err, errors.ErrCodeInvalidRepo) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidRepo     Code = "INVALID_REPO"
	ErrCodeInvalidCategory Code = "INVALID_CATEGORY"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Transport errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeDecode  Code = "DECODE_ERROR"

	// Rate limiting
	ErrCodeRateLimited      Code = "RATE_LIMITED"
	ErrCodeRetriesExhausted Code = "RETRIES_EXHAUSTED"

	// Pagination
	ErrCodePaginationExhausted Code = "PAGINATION_EXHAUSTED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// Cancellation
	ErrCodeCancelled Code = "CANCELLED"

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

// RateLimitedError is returned when the request budget is exhausted,
// either reported by the forge (403/429 with rate headers) or detected
// locally before a request is sent. The reset time is authoritative:
// callers should wait until ResetAt rather than backing off blindly.
type RateLimitedError struct {
	ResetAt   time.Time // When the budget resets
	Remaining int       // Requests left when the error was raised
	Limit     int       // Total budget per window
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if !e.ResetAt.IsZero() {
		return fmt.Sprintf("rate limited: %d/%d remaining, resets at %s",
			e.Remaining, e.Limit, e.ResetAt.Format(time.RFC3339))
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}

// RetriesExhaustedError is returned when every retry attempt for an
// operation failed with a transient error.
type RetriesExhaustedError struct {
	Attempts int   // Number of attempts made
	Last     error // Error from the final attempt
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap returns the error from the final attempt.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// IsRateLimited reports whether err is (or wraps) a RateLimitedError.
func IsRateLimited(err error) bool {
	return errors.As(err, new(*RateLimitedError))
}
