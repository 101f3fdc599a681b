// Package domainerrors defines coded errors shared by all services. Handlers
// translate codes into HTTP statuses through ToHTTPStatus; services never
// import net/http.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a class of failure. Codes are stable and part of the API
// contract: clients switch on them, not on messages.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
	CodeTimeout      Code = "timeout"
)

// DomainError carries a code, a human-readable message, and optionally
// per-field validation details for bad_request responses.
type DomainError struct {
	Code    Code
	Message string
	// Details maps field names to validation messages. Only populated for
	// CodeBadRequest.
	Details map[string]string
	cause   error
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *DomainError) Unwrap() error { return e.cause }

// New builds a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewValidation builds a bad_request error with per-field messages.
func NewValidation(message string, details map[string]string) *DomainError {
	return &DomainError{Code: CodeBadRequest, Message: message, Details: details}
}

// Wrap attaches a code and message to an underlying error while preserving it
// for errors.Is/As chains.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in a service.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
