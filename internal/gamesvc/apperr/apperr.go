// Package apperr defines the error taxonomy shared by the catalog use cases
// and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInternal         Code = "E-001"
	CodeNotFound         Code = "E-002"
	CodeAlreadyExists    Code = "E-003"
	CodeNotAuthenticated Code = "E-004"
	CodeNotAuthorized    Code = "E-005"
	CodeConfiguration    Code = "E-006"
	CodeParameterInvalid Code = "E-007"
)

var statusByCode = map[Code]int{
	CodeInternal:         http.StatusInternalServerError,
	CodeNotFound:         http.StatusNotFound,
	CodeAlreadyExists:    http.StatusConflict,
	CodeNotAuthenticated: http.StatusUnauthorized,
	CodeNotAuthorized:    http.StatusForbidden,
	CodeConfiguration:    http.StatusInternalServerError,
	CodeParameterInvalid: http.StatusBadRequest,
}

var reasonByCode = map[Code]string{
	CodeInternal:         "Internal server error.",
	CodeNotFound:         "Resource not found.",
	CodeAlreadyExists:    "Resource already exists.",
	CodeNotAuthenticated: "Client not authenticated.",
	CodeNotAuthorized:    "Client not authorized.",
	CodeConfiguration:    "Configuration error.",
	CodeParameterInvalid: "Parameter validation error.",
}

// HTTPStatus returns the status code the boundary answers with.
func (c Code) HTTPStatus() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func (c Code) Reason() string {
	if r, ok := reasonByCode[c]; ok {
		return r
	}
	return reasonByCode[CodeInternal]
}

// Error is a typed catalog error. Err keeps the underlying cause, if any.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NotFound builds "<resource> <attr> not found." errors.
func NotFound(resource, attr string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s %s not found.", resource, attr))
}

// AlreadyExists builds "<resource> <attr> already exists." errors.
func AlreadyExists(resource, attr string) *Error {
	return New(CodeAlreadyExists, fmt.Sprintf("%s %s already exists.", resource, attr))
}

func ParameterInvalid(format string, args ...any) *Error {
	return New(CodeParameterInvalid, fmt.Sprintf(format, args...))
}

func AuthenticationFailed(message string) *Error {
	return New(CodeNotAuthenticated, message)
}

func AuthorizationFailed(message string) *Error {
	return New(CodeNotAuthorized, message)
}

func Configuration(format string, args ...any) *Error {
	return New(CodeConfiguration, fmt.Sprintf(format, args...))
}

func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Message: message, Err: err}
}

// From returns the first *Error in err's chain.
func From(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	appErr, ok := From(err)
	return ok && appErr.Code == code
}

// Wrap leaves typed errors alone and turns anything else into an internal error.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := From(err); ok {
		return appErr
	}
	return Internal("unexpected failure", err)
}
