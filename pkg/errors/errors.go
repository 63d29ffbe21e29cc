// Package errors defines the coded errors returned by regionsync.
//
// Every error that crosses a package boundary carries a [Code]. The CLI
// prints the message, the HTTP API maps the code to a status, and callers
// branch on it with [Is]:
//
//	err := errors.New(errors.ErrCodeRegionNotFound, "region %s", id)
//	if errors.Is(err, errors.ErrCodeRegionNotFound) {
//	    ...
//	}
//
// Codes group by prefix: INVALID_* for rejected input, *NOT_FOUND for
// unknown references, CANCELLED for a stop requested through a progress
// monitor and CONTRACT_VIOLATION for a caller defect.
//
// Routing failures and color collisions are not errors. They are reported
// in a result.RoutingResult and never abort an operation.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error class.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidOptions  Code = "INVALID_OPTIONS"
	ErrCodeInvalidDocument Code = "INVALID_DOCUMENT"
	ErrCodeInvalidID       Code = "INVALID_ID"

	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeRegionNotFound Code = "REGION_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	ErrCodeCancelled         Code = "CANCELLED"
	ErrCodeContractViolation Code = "CONTRACT_VIOLATION"
	ErrCodeTransaction       Code = "TRANSACTION_FAILED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an error with the given code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or "" if
// there is none.
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of a coded error without its code, or
// err.Error() for any other error.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Cancelled returns the error reported when a progress monitor stops an
// operation. The phase names where the stop was observed.
func Cancelled(phase string) *Error {
	return New(ErrCodeCancelled, "operation cancelled during %s", phase)
}

// IsCancelled reports whether err is a cancellation.
func IsCancelled(err error) bool { return Is(err, ErrCodeCancelled) }

// Contract panics with a CONTRACT_VIOLATION error. It marks a caller defect,
// such as decomposing a virtual subset region, that must be prevented by
// preconditions rather than handled at runtime.
func Contract(format string, args ...any) {
	panic(New(ErrCodeContractViolation, format, args...))
}
