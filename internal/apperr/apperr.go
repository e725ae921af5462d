package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable machine-readable failure category.
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindExpired           Kind = "expired"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindTokenMismatch     Kind = "token_mismatch"
	KindConflict          Kind = "conflict"
	KindTransient         Kind = "transient"
)

// Error pairs a failure kind with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindMissingCredential, KindInvalidCredential, KindExpired, KindTokenMismatch:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MissingCredential reports an absent credential on a guarded request.
func MissingCredential(message string) *Error {
	return &Error{Kind: KindMissingCredential, Message: message}
}

// InvalidCredential reports a credential that failed verification.
func InvalidCredential(message string) *Error {
	return &Error{Kind: KindInvalidCredential, Message: message}
}

// Expired reports a token past its validity window.
func Expired(message string) *Error {
	return &Error{Kind: KindExpired, Message: message}
}

// Forbidden reports an authenticated caller with insufficient role.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// TokenMismatch reports a reset token that no longer matches the stored value.
func TokenMismatch(message string) *Error {
	return &Error{Kind: KindTokenMismatch, Message: message}
}

// Conflict reports a uniqueness violation such as a duplicate email.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// Transient wraps a store or delivery failure that the client may retry.
func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// KindOf extracts the kind from err, or empty if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
