package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an orchestrator failure.  The HTTP layer maps each kind to
// exactly one status code.
type Kind int

const (
	KindInternal     Kind = iota // store I/O failure or anything unexpected (500)
	KindValidation               // missing or malformed input (400)
	KindConflict                 // duplicate identity (409)
	KindNotFound                 // no matching user (404)
	KindForbidden                // unverified account, invalid credential material (403)
	KindUnauthorized             // bad password or missing token (401)
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Status is the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Error is returned by every Service operation.  Message is safe to show to
// the caller; Err holds the underlying cause and is never exposed.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Describe returns the HTTP status and caller-safe message for err.  Errors
// that are not *Error are treated as internal.
func Describe(err error) (int, string) {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind.Status(), aerr.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}
