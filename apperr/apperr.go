// Package apperr classifies failures of the messaging core so that the HTTP
// and websocket layers can surface them consistently.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of an application error.
type Kind string

const (
	KindUnknown     Kind = "UNKNOWN"
	KindValidation  Kind = "VALIDATION"
	KindNotFound    Kind = "NOT_FOUND"
	KindUpstream    Kind = "UPSTREAM"
	KindPersistence Kind = "PERSISTENCE"
)

// Error carries a Kind, a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a malformed id or a missing required field.
func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound reports an absent group or user.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Upstream reports a failure of an external collaborator such as the blob host.
func Upstream(message string, cause error) error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// Persistence reports a storage failure.
func Persistence(message string, cause error) error {
	return &Error{Kind: KindPersistence, Message: message, Err: cause}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps err to the status code returned to HTTP callers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to clients. Causes are
// never exposed.
func PublicMessage(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
