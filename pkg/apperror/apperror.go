// Package apperror defines the coded application errors shared by the
// service and transport layers. Services return coded errors; handlers map
// the code to an HTTP status without inspecting error strings.
package apperror

import (
	"context"
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeTimeout         Code = "TIMEOUT"
	CodeTransport       Code = "TRANSPORT"
	CodeInternal        Code = "INTERNAL"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidArgument(msg string) error { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) error        { return New(CodeNotFound, msg) }
func Conflict(msg string) error        { return New(CodeConflict, msg) }
func Forbidden(msg string) error       { return New(CodeForbidden, msg) }
func Unauthenticated(msg string) error { return New(CodeUnauthenticated, msg) }
func Timeout(msg string) error         { return New(CodeTimeout, msg) }
func Internal(msg string) error        { return New(CodeInternal, msg) }

// CodeOf extracts the code from an error chain. Context deadline errors map
// to CodeTimeout so repository-level timeouts surface with the right kind.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeUnknown
}

func IsCode(err error, code Code) bool { return CodeOf(err) == code }
