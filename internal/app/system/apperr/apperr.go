// Package apperr defines the operational error taxonomy and the central
// translator that maps storage and token faults into it. Handlers never
// swallow errors; everything flows through Handler.Write, which renders
// the JSON error envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of operational failure.
type Code string

const (
	CodeValidationFailed Code = "validation_failed" // 400
	CodeDuplicate        Code = "duplicate"         // 400
	CodeNotFound         Code = "not_found"         // 404
	CodeUnauthorized     Code = "unauthorized"      // 401
	CodeForbidden        Code = "forbidden"         // 403
	CodeRateLimited      Code = "rate_limited"      // 429
	CodeUnexpected       Code = "unexpected"        // 500
)

// Error is an expected, user-facing failure. Operational errors expose
// their message to callers; anything else collapses to a generic 500 in
// terse mode.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Operational reports whether the error is an expected failure rather
// than a programming fault. Unexpected (500) errors are not operational.
func (e *Error) Operational() bool { return e.Code != CodeUnexpected }

func New(code Code, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

func ValidationFailed(message string) *Error {
	return New(CodeValidationFailed, http.StatusBadRequest, message)
}

func Duplicate(message string) *Error {
	return New(CodeDuplicate, http.StatusBadRequest, message)
}

func NotFound(message string) *Error {
	return New(CodeNotFound, http.StatusNotFound, message)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, http.StatusForbidden, message)
}

func RateLimited(message string) *Error {
	return New(CodeRateLimited, http.StatusTooManyRequests, message)
}

func Unexpected(err error) *Error {
	return &Error{Code: CodeUnexpected, Status: http.StatusInternalServerError, Message: "something went wrong", Err: err}
}

// Wrap attaches a cause to a taxonomy error without changing its class.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, Err: err}
}

// As extracts an *Error from an error chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
