// Package apperr defines the error categories surfaced by the relay and
// their HTTP status mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindAuthentication Kind = iota
	KindValidation
	KindNotFound
	KindUpstream
	KindConfiguration
)

type Error struct {
	Kind Kind
	Msg  string

	// Set only for KindUpstream: the provider's response as received.
	UpstreamStatus int
	UpstreamBody   string
}

func (e *Error) Error() string {
	if e.Kind == KindUpstream {
		return fmt.Sprintf("%s: provider returned %d body=%q", e.Msg, e.UpstreamStatus, e.UpstreamBody)
	}
	return e.Msg
}

func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Msg: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Upstream(msg string, status int, body string) *Error {
	return &Error{Kind: KindUpstream, Msg: msg, UpstreamStatus: status, UpstreamBody: body}
}

func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// HTTPStatus maps an error to the status code the API responds with.
// Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindAuthentication:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		if ae.UpstreamStatus >= 400 {
			return ae.UpstreamStatus
		}
		return http.StatusBadGateway
	case KindConfiguration:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// IsKind reports whether err is an apperr.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
