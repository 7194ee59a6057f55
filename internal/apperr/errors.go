// Package apperr holds the error taxonomy shared by the client engine and the
// backend: every failure is classified by Kind so callers can branch with
// errors.Is without parsing messages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindRemote Kind = iota
	KindUnauthorized
	KindValidation
	KindNotFound
	KindForbidden
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "remote"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrValidation   = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrRateLimited  = &Error{Kind: KindRateLimited, Message: "rate limit exceeded"}
	ErrRemote       = &Error{Kind: KindRemote, Message: "remote failure"}
)

// ErrSuperseded is returned by a controller operation whose response arrived
// after a newer request of the same controller had been issued. The response
// is dropped.
var ErrSuperseded = errors.New("superseded by a newer request")

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Validation(message string) *Error   { return New(KindValidation, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }

// KindOf returns the Kind of err, or KindRemote when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRemote
}

// FromStatus maps a backend HTTP status to an error.
func FromStatus(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized:
		return New(KindUnauthorized, message)
	case status == http.StatusForbidden:
		return New(KindForbidden, message)
	case status == http.StatusNotFound:
		return New(KindNotFound, message)
	case status == http.StatusTooManyRequests:
		return New(KindRateLimited, message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return New(KindValidation, message)
	default:
		return New(KindRemote, fmt.Sprintf("status %d: %s", status, message))
	}
}

// Status is the inverse of FromStatus, used by the backend when replying.
func Status(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
