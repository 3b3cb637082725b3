// Package apperr defines the error taxonomy shared by the services and the
// numeric codes each kind is reported with.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthenticated
	KindValidationFailed
)

// Codes carried by envelopes and responses.
const (
	CodeOK               = 0
	CodeValidationFailed = 400
	CodeUnauthenticated  = 401
	CodeForbidden        = 403
	CodeNotFound         = 404
	CodeConflict         = 409
	CodeInternal         = 500
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidationFailed:
		return "validation_failed"
	default:
		return "internal"
	}
}

// Code returns the numeric code reported for k.
func (k Kind) Code() int {
	switch k {
	case KindNotFound:
		return CodeNotFound
	case KindConflict:
		return CodeConflict
	case KindForbidden:
		return CodeForbidden
	case KindUnauthenticated:
		return CodeUnauthenticated
	case KindValidationFailed:
		return CodeValidationFailed
	default:
		return CodeInternal
	}
}

// FromCode maps a nonzero envelope code to a kind. Unknown codes are Internal.
func FromCode(code int) Kind {
	switch code {
	case CodeNotFound:
		return KindNotFound
	case CodeConflict:
		return KindConflict
	case CodeForbidden:
		return KindForbidden
	case CodeUnauthenticated:
		return KindUnauthenticated
	case CodeValidationFailed:
		return KindValidationFailed
	default:
		return KindInternal
	}
}

// Error is a classified failure. Message is safe to show to callers; Err is
// kept for logs only.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func NotFound(op, message string) *Error   { return New(KindNotFound, op, message) }
func Conflict(op, message string) *Error   { return New(KindConflict, op, message) }
func Forbidden(op, message string) *Error  { return New(KindForbidden, op, message) }
func Validation(op, message string) *Error { return New(KindValidationFailed, op, message) }

func Unauthenticated(op, message string) *Error {
	return New(KindUnauthenticated, op, message)
}

func Internal(op string, err error) *Error {
	return Wrap(KindInternal, op, "internal error", err)
}

// KindOf reports the kind of err. Errors outside the taxonomy are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the message callers may see. Internal failures never
// expose their cause.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Message != "" {
		return e.Message
	}
	return "internal error"
}
