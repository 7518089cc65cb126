// Package rserr provides structured error handling for the application.
//
// Features:
// - Standardized error codes
// - Human-readable messages
// - Error chaining/tracing
// - Helper options for error construction
//
// The Error type implements the standard error interface while carrying
// a machine-readable code and optional context details.
package rserr

import (
	"errors"
	"fmt"
	"strings"
)

//nolint:gochecknoglobals
var (
	// Is forwards to errors.Is for error comparison.
	Is = errors.Is

	// As forwards to errors.As for error type assertion.
	As = errors.As

	// Unwrap forwards to errors.Unwrap for error chain inspection.
	Unwrap = errors.Unwrap
)

// Details provides additional context for errors in key-value format.
type Details map[string]any

// ErrorOption defines optional parameters for error creation.
type ErrorOption func(*Error)

// Code is a machine-readable error identifier used to categorize errors
// across the application.
type Code string

// WithError sets the underlying error.
func WithError(err error) ErrorOption {
	return func(e *Error) {
		e.Err = err
	}
}

// WithDetails adds additional context details to the error.
func WithDetails(details Details) ErrorOption {
	return func(e *Error) {
		if e.Details == nil {
			e.Details = make(Details)
		}

		for k, v := range details {
			e.Details[k] = v
		}
	}
}

// Error is a structured error with a code, a message, an optional
// underlying error and optional context details.
//
// Example:
//
//	err := rserr.New(rserr.CodeConfigError, "invalid config path", rserr.WithError(pathErr))
type Error struct {
	Code    Code    // Machine-readable error code
	Message string  // Human-readable message
	Err     error   // Underlying error (optional)
	Details Details // Additional context details
}

// New creates a new structured error instance from a code, a message and
// optional parameters (WithError, WithDetails).
func New(code Code, message string, opts ...ErrorOption) error {
	err := &Error{
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		opt(err)
	}

	return err
}

// Error implements the error interface.
//
// Format:
//
//	"CODE: message [k=v, ...] (nested error)" when details or a nested error exist
//	"CODE: message" otherwise
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	if len(e.Details) > 0 {
		sb.WriteString(" [")

		first := true

		for k, v := range e.Details {
			if !first {
				sb.WriteString(", ")
			}

			fmt.Fprintf(&sb, "%s=%v", k, v)

			first = false
		}

		sb.WriteString("]")
	}

	if e.Err != nil {
		sb.WriteString(" (")
		sb.WriteString(e.Err.Error())
		sb.WriteString(")")
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is compares error codes for equality. Two *Error values match when
// their codes are equal, regardless of message or details.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}

	return false
}

// Common error codes for consistent error handling.
const (
	// CodeInvalidInput indicates invalid user input/parameters.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeConfigError indicates configuration related errors.
	CodeConfigError Code = "CONFIG_ERROR"

	// CodeTLSError indicates certificate or TLS setup failures.
	CodeTLSError Code = "TLS_ERROR"

	// CodeProxyError indicates upstream proxy failures.
	CodeProxyError Code = "PROXY_ERROR"

	// CodeServerError indicates general server failures.
	CodeServerError Code = "SERVER_ERROR"

	// CodeShutdownError indicates server shutdown failures.
	CodeShutdownError Code = "SHUTDOWN_ERROR"
)
