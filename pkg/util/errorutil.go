package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes rendered in the "code" field of error responses.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// DomainError standardizes application errors. Err is kept for logs and
// never rendered to clients.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, resource+" not found", http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewUnauthorizedWithCause keeps the verification failure for server-side
// logging while the client only sees message.
func NewUnauthorizedWithCause(message string, cause error) error {
	e := NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
	e.Err = cause
	return e
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewTooManyRequests(message string) error {
	return NewDomainError(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

func NewServiceUnavailable(message string) error {
	return NewDomainError(CodeServiceUnavailable, message, http.StatusServiceUnavailable, nil)
}

// NewUpstreamError reports a failing third-party API.
func NewUpstreamError(message string, cause error) error {
	e := NewDomainError(CodeUpstream, message, http.StatusBadGateway, nil)
	e.Err = cause
	return e
}

func NewInternalError(err error) error {
	e := NewDomainError(CodeInternal, "internal server error", http.StatusInternalServerError, nil)
	e.Err = err
	return e
}

// ToDomainError converts generic errors to DomainError. pgx.ErrNoRows
// becomes NOT_FOUND; anything unrecognized becomes INTERNAL_ERROR.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// HasStatus reports whether err maps to the given HTTP status.
func HasStatus(err error, status int) bool {
	return err != nil && ToDomainError(err).HTTPStatus == status
}
