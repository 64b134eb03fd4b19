package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation             Kind = "validation_failed"
	KindNotFound               Kind = "not_found"
	KindUnavailable            Kind = "unavailable"
	KindForbidden              Kind = "forbidden"
	KindUnauthorized           Kind = "unauthorized"
	KindCancellationNotAllowed Kind = "cancellation_not_allowed"
	KindConflict               Kind = "conflict"
	KindInternal               Kind = "internal_failure"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned by every service in this module.
// Two errors compare equal under errors.Is when their kinds match, so the
// package-level sentinels can be used as targets.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

var (
	ErrValidation             = &Error{Kind: KindValidation}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrUnavailable            = &Error{Kind: KindUnavailable}
	ErrForbidden              = &Error{Kind: KindForbidden}
	ErrUnauthorized           = &Error{Kind: KindUnauthorized}
	ErrCancellationNotAllowed = &Error{Kind: KindCancellationNotAllowed}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrInternal               = &Error{Kind: KindInternal}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
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

func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "invalid data", Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Unavailable(message string) *Error {
	return &Error{Kind: KindUnavailable, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func CancellationNotAllowed(message string) *Error {
	return &Error{Kind: KindCancellationNotAllowed, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// FieldsOf returns the field errors carried by a validation error.
func FieldsOf(err error) []FieldError {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

// HTTPStatus maps an error kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUnavailable, KindCancellationNotAllowed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
