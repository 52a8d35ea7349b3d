// Package domainerrors defines the coded error type shared by all patchdesk
// services. Services attach a Code so transport layers can translate errors
// into HTTP statuses without string matching, and diagnostics can branch on
// metadata without parsing messages.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeValidation         Code = "validation"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeTransitionDenied   Code = "transition_denied"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// DomainError carries a code, a human-readable message, an optional wrapped
// cause, and a small metadata bag for diagnostics.
type DomainError struct {
	Code    Code
	Message string
	Err     error
	meta    map[string]string
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// New creates a DomainError with the given code and message.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap annotates an underlying error with a domain code and message.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Add attaches a metadata key/value pair and returns the error for chaining.
func (e *DomainError) Add(key, value string) *DomainError {
	if e.meta == nil {
		e.meta = make(map[string]string)
	}
	e.meta[key] = value
	return e
}

// Meta returns a copy of the attached metadata, or nil when empty.
func (e *DomainError) Meta() map[string]string {
	if len(e.meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.meta))
	for k, v := range e.meta {
		out[k] = v
	}
	return out
}

// Load reads a metadata value previously attached with Add.
func (e *DomainError) Load(key string) (string, bool) {
	v, ok := e.meta[key]
	return v, ok
}

// HasCode reports whether err (anywhere in its chain) is a DomainError with
// the given code.
func HasCode(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// ToHTTPStatus maps a domain code to an HTTP status code.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeTransitionDenied:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf extracts the domain code from err, defaulting to CodeInternal for
// non-domain errors.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
