// Package apperr classifies failures crossing component boundaries so the
// webhook can convert every one of them into a fixed user-facing reply.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the classification of a failure.
type Kind string

const (
	// KindUpstreamUnavailable is a transport-level failure talking to an upstream API.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindUpstreamBadStatus is a non-200 response from an upstream API.
	KindUpstreamBadStatus Kind = "upstream_bad_status"
	// KindMissingField is a well-formed response lacking an expected key.
	KindMissingField Kind = "missing_field"
	// KindAuthFailure is a credential that could not be obtained or that an
	// upstream refused.
	KindAuthFailure Kind = "auth_failure"
	// KindUnknownIntent is an intent with no registered handler.
	KindUnknownIntent Kind = "unknown_intent"
	// KindInvalidInput is a required parameter that is absent or malformed.
	KindInvalidInput Kind = "invalid_input"
	// KindTimeout is a background job that did not finish in time.
	KindTimeout Kind = "timeout"
	// KindInternal is the catch-all.
	KindInternal Kind = "internal"
)

// Error is a classified failure.
type Error struct {
	Kind   Kind
	Status int    // HTTP status of an upstream response
	Body   string // raw upstream response body
	Field  string // missing key, KindMissingField only
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindUpstreamBadStatus:
		return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
	case KindAuthFailure:
		if e.Status != 0 {
			return fmt.Sprintf("upstream rejected credentials with status %d: %s", e.Status, e.Body)
		}
	case KindMissingField:
		if e.Err != nil {
			return fmt.Sprintf("missing field %q: %v", e.Field, e.Err)
		}
		return fmt.Sprintf("missing field %q", e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Unavailable wraps a transport failure.
func Unavailable(err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Err: err}
}

// BadStatus records a non-success upstream response.
func BadStatus(status int, body string) *Error {
	return &Error{Kind: KindUpstreamBadStatus, Status: status, Body: body}
}

// MissingField records an absent key in an otherwise successful response.
func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

// Auth wraps a credential failure.
func Auth(err error) *Error {
	return &Error{Kind: KindAuthFailure, Err: err}
}

// Rejected records an upstream response refusing the configured credential.
func Rejected(status int, body string) *Error {
	return &Error{Kind: KindAuthFailure, Status: status, Body: body}
}

// InvalidInput reports an absent or malformed required parameter.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

// UnknownIntent reports an intent with no handler.
func UnknownIntent(name string) *Error {
	return &Error{Kind: KindUnknownIntent, Err: fmt.Errorf("no handler for intent %q", name)}
}

// Timeout wraps a deadline failure.
func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Err: err}
}

// Internal wraps anything else.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the classification of err. Unclassified errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
