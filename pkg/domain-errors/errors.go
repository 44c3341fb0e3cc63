// Package domainerrors provides coded errors for policy and authorization
// rejections. Every rejection carries a stable code plus structured details
// (offending address, expected vs actual lengths) so callers never have to
// re-parse a message string.
//
// Infrastructure facts (not found in store, conflict on insert) use
// pkg/platform/sentinel instead; services translate those into domain
// errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain rejection.
type Code string

const (
	// Rejection families of the ledger surface.
	CodeUnauthorized         Code = "unauthorized"
	CodePaused               Code = "paused"
	CodeTransferNotAllowed   Code = "transfer_not_allowed"
	CodeRoleConflict         Code = "role_conflict"
	CodeNotRegistered        Code = "not_registered"
	CodeInvalidAddress       Code = "invalid_address"
	CodeExpirationNotFuture  Code = "expiration_not_future"
	CodeArraysLengthMismatch Code = "arrays_length_mismatch"

	// Generic codes used by transport translation.
	CodeBadRequest Code = "bad_request"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal"
)

// Error is a domain rejection. It is all-or-nothing: when a service returns
// an Error no state change has been applied.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	cause   error
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an underlying error with a domain code. The cause remains
// reachable through errors.Unwrap for logging.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetail attaches a structured detail and returns the error for
// chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Detail returns the structured detail for key, or "".
func (e *Error) Detail(key string) string {
	return e.Details[key]
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HasCode reports whether err (or anything it wraps) is a domain error with
// the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the domain code from err, or CodeInternal when err is not
// a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// AsError extracts the *Error from err if present.
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}
