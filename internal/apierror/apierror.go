// Package apierror provides standardized error response structures for the API
// and the typed domain errors the service layer returns. All errors surfaced
// to clients go through this package to ensure consistency and to prevent
// leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure. Soft anomalies are intentionally absent:
// they are recorded and dispatched to monitoring, never returned to the
// caller of the triggering operation.
type Kind string

const (
	KindConflict   Kind = "CONFLICT"   // duplicate open session, duplicate lock, duplicate close
	KindNotFound   Kind = "NOT_FOUND"  // unknown register / session / sale
	KindValidation Kind = "VALIDATION" // payment breakdown mismatch, negative quantities
)

// Error is a domain error carrying its taxonomy kind. Failures are always
// scoped to a single operation — nothing here is fatal to the process.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Conflict(msg string) *Error   { return &Error{Kind: KindConflict, Msg: msg} }
func NotFound(msg string) *Error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Msg: msg} }

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

// Status maps an error to the HTTP status the handlers respond with.
func Status(err error) int {
	var de *Error
	if errors.As(err, &de) {
		switch de.Kind {
		case KindConflict:
			return http.StatusConflict
		case KindNotFound:
			return http.StatusNotFound
		case KindValidation:
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// From builds the response envelope for a domain error, preserving its code.
func From(err error) *APIError {
	var de *Error
	if errors.As(err, &de) {
		return &APIError{Detail: de.Msg, Code: string(de.Kind)}
	}
	return &APIError{Detail: err.Error()}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Code: string(KindValidation), Fields: fields}
}
