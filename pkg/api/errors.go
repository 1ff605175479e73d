package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Kind classifies an API error so callers can react without string
// matching. The mapping from HTTP status codes is fixed; KindValidation
// additionally covers client-side checks that never reach the network.
type Kind int

const (
	// KindNetwork means the request did not complete (DNS, refused
	// connection, timeout). There is no HTTP status.
	KindNetwork Kind = iota

	// KindValidation means the input was rejected before or instead of
	// the operation taking effect (client-side pre-checks, 422).
	KindValidation

	// KindAuth means the credential was missing, invalid, or lacked
	// permission (401, 403).
	KindAuth

	// KindNotFound means the target resource does not exist (404).
	KindNotFound

	// KindConflict means the backend refused the operation against its
	// current state, e.g. insufficient stock or a duplicate name (400, 409).
	KindConflict

	// KindServer means the backend failed (5xx).
	KindServer
)

// String returns a short identifier for the kind, used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by every Client call and by the
// store layer's client-side checks. Message is safe to show to users;
// it carries the backend's detail text when one was supplied.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Status is the HTTP status code, or 0 for client-side errors.
	Status int

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Validation returns a client-side validation error that never touched
// the network.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// errorBody is the backend's error envelope. FastAPI-style backends send
// either a plain string detail or a list of field errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// decodeError turns a non-2xx response into an *Error, preserving the
// backend's detail message when present.
func decodeError(resp *http.Response, fallback string) *Error {
	kind := kindForStatus(resp.StatusCode)
	msg := fallback

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(body) > 0 {
		if detail := detailMessage(body); detail != "" {
			msg = detail
		}
	}

	return &Error{Kind: kind, Message: msg, Status: resp.StatusCode}
}

// detailMessage extracts a displayable message from an error envelope.
func detailMessage(body []byte) string {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}

	// Field-level validation errors arrive as a list of {msg: ...}.
	var fields []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, ", ")
	}

	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 400 && status < 500:
		return KindConflict
	default:
		return KindServer
	}
}
