package services

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies failures so the HTTP layer can pick a status without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindMissingField
	KindNotFound
	KindInvalidCredential
	KindInvalidCode
	KindAlreadyFound
	KindNoUsersAvailable
	KindEmptyHint
	KindInvalidDelta
	KindNoWaldoToday
	KindWaldoExists
	KindAlreadyExists
	KindInvalidURL
)

// Error is the error type returned by every service operation.
// errors.Is matches two *Error values of the same Kind.
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

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrMissingField      = &Error{Kind: KindMissingField, Message: "missing required field"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "incorrect password"}
	ErrInvalidCode       = &Error{Kind: KindInvalidCode, Message: "invalid code"}
	ErrAlreadyFound      = &Error{Kind: KindAlreadyFound, Message: "already found today"}
	ErrNoUsersAvailable  = &Error{Kind: KindNoUsersAvailable, Message: "no users exist to choose from"}
	ErrEmptyHint         = &Error{Kind: KindEmptyHint, Message: "hint cannot be empty"}
	ErrInvalidDelta      = &Error{Kind: KindInvalidDelta, Message: "invalid or missing 'points'"}
	ErrNoWaldoToday      = &Error{Kind: KindNoWaldoToday, Message: "no waldo selected today"}
	ErrWaldoExists       = &Error{Kind: KindWaldoExists, Message: "waldo already selected today"}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists, Message: "username or email already exists"}
	ErrInvalidImageURL   = &Error{Kind: KindInvalidURL, Message: "image url must be an http or https url"}
)

// MissingField names the absent request fields.
func MissingField(fields ...string) error {
	if len(fields) == 0 {
		return ErrMissingField
	}
	return &Error{Kind: KindMissingField, Message: "missing required field(s): " + strings.Join(fields, ", ")}
}

// NotFound reports a missing entity, e.g. NotFound("user").
func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Internal wraps an unexpected failure (storage, crypto). Its cause is logged, never shown.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindMissingField, KindNoUsersAvailable, KindEmptyHint, KindInvalidDelta, KindInvalidURL:
		return http.StatusBadRequest
	case KindNotFound, KindNoWaldoToday:
		return http.StatusNotFound
	case KindInvalidCredential, KindInvalidCode:
		return http.StatusForbidden
	case KindAlreadyFound, KindWaldoExists, KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to put in an error body.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	return e.Message
}
