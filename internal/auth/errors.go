package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures of the login flow
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration_error"
	KindCsrf          ErrorKind = "csrf_error"
	KindUpstreamAuth  ErrorKind = "upstream_auth_error"
	KindValidation    ErrorKind = "validation_error"
	KindStorage       ErrorKind = "storage_error"
	KindNotFound      ErrorKind = "not_found"
)

// Client-facing messages. Upstream and storage causes are only logged.
const (
	msgNotConfigured = "Google OAuth is not configured"
	msgInvalidState  = "invalid or expired state, retry login"
	msgAuthFailed    = "authentication failed, try again"
	msgInternal      = "internal error, try again later"
)

// Error is returned by every step of the login flow.
// Detail is safe to show to the caller; Err and the upstream fields are for logs.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error

	// Set for KindUpstreamAuth when the provider answered with an HTTP error
	UpstreamStatus int
	UpstreamBody   string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind onto the HTTP status returned to the client
func (e *Error) Status() int {
	switch e.Kind {
	case KindCsrf, KindUpstreamAuth, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// KindOf returns the kind of an *Error anywhere in the chain, or "" for foreign errors
func KindOf(err error) ErrorKind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}

func configurationError(err error) *Error {
	return &Error{Kind: KindConfiguration, Detail: msgNotConfigured, Err: err}
}

func csrfError(err error) *Error {
	return &Error{Kind: KindCsrf, Detail: msgInvalidState, Err: err}
}

func upstreamError(status int, body string, err error) *Error {
	return &Error{Kind: KindUpstreamAuth, Detail: msgAuthFailed, Err: err, UpstreamStatus: status, UpstreamBody: body}
}

func validationError(detail string, err error) *Error {
	return &Error{Kind: KindValidation, Detail: detail, Err: err}
}

func storageError(err error) *Error {
	return &Error{Kind: KindStorage, Detail: msgInternal, Err: err}
}
