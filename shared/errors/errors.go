package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode or one of the typed errors below
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) HTTPStatus() int {
	return e.StatusCode
}

// StatusCoder is implemented by every error that knows its HTTP status.
type StatusCoder interface {
	error
	HTTPStatus() int
}

func NotFound(what string) error {
	return &ErrorWithStatusCode{Message: what + " not found", StatusCode: http.StatusNotFound}
}

// IsNotFound reports whether err (or anything it wraps) is a 404.
func IsNotFound(err error) bool {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus() == http.StatusNotFound
	}
	return false
}

// New, As and Unwrap forward to the standard library so callers importing this
// package as "errors" keep the usual helpers.
func New(text string) error { return errors.New(text) }

func As(err error, target any) bool { return errors.As(err, target) }

func Unwrap(err error) error { return errors.Unwrap(err) }

// Is checks whether err is of custom error type T
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// =========================================================================
// Auth
// =========================================================================

type AuthErrorKind int

const (
	ServiceUnavailable AuthErrorKind = iota + 1
	InvalidCredentials
	UnknownCohort
)

func (k AuthErrorKind) String() string {
	switch k {
	case ServiceUnavailable:
		return "service_unavailable"
	case InvalidCredentials:
		return "invalid_credentials"
	case UnknownCohort:
		return "unknown_cohort"
	}
	return "unknown"
}

// AuthError is returned by the login flows. Message is user facing and may
// come verbatim from the external identity service.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) HTTPStatus() int {
	switch e.Kind {
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case UnknownCohort:
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

// =========================================================================
// Tokens
// =========================================================================

type TokenErrorKind int

const (
	TokenNotFound TokenErrorKind = iota + 1
	TokenExpired
	TokenOwnershipViolation
)

type TokenError struct {
	Kind TokenErrorKind
}

func (e *TokenError) Error() string {
	switch e.Kind {
	case TokenNotFound:
		return "Invalid token"
	case TokenExpired:
		return "Token expired"
	case TokenOwnershipViolation:
		return "Token is owned by another user"
	}
	return "Token error"
}

func (e *TokenError) HTTPStatus() int {
	if e.Kind == TokenOwnershipViolation {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func IsTokenError(err error, kind TokenErrorKind) bool {
	var te *TokenError
	return errors.As(err, &te) && te.Kind == kind
}

// =========================================================================
// Permission, validation, export
// =========================================================================

type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

func (e *PermissionError) HTTPStatus() int {
	return http.StatusForbidden
}

var ErrInsufficientRole = &PermissionError{Message: "Access denied. Only for staff"}

type ValidationError struct {
	Message  string
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	if e.TooLarge {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// ExportError aborts a whole export request.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed", e.Format)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func (e *ExportError) HTTPStatus() int {
	return http.StatusInternalServerError
}
