// Package apperror carries the error taxonomy shared by services and the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindForbidden
	KindConflict
	KindInvalidTransition
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to callers; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Reason  string
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

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithReason returns a copy of e tagged with a machine readable reason code.
func (e *Error) WithReason(reason string) *Error {
	cp := *e
	cp.Reason = reason
	return &cp
}

func Validation(message string) *Error  { return New(KindValidation, message) }
func NotFound(message string) *Error    { return New(KindNotFound, message) }
func Auth(message string) *Error        { return New(KindAuth, message) }
func Forbidden(message string) *Error   { return New(KindForbidden, message) }
func Conflict(message string) *Error    { return New(KindConflict, message) }
func RateLimited(message string) *Error { return New(KindRateLimited, message) }

func InvalidTransition(message string) *Error {
	return New(KindInvalidTransition, message)
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func StatusCode(kind Kind) int {
	switch kind {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
