package netatmo

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures of the Netatmo layer.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotAuthenticated
	KindHTTPFailure
	KindIOFailure
	KindCorruption
	KindValidationFailure
)

// String returns a stable, log-friendly name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindHTTPFailure:
		return "http_failure"
	case KindIOFailure:
		return "io_failure"
	case KindCorruption:
		return "corruption"
	case KindValidationFailure:
		return "validation_failure"
	default:
		return "unknown"
	}
}

// Error is the error type returned by this package.
type Error struct {
	Kind ErrorKind

	// StatusCode is the HTTP status for KindHTTPFailure, or 0 when the request
	// never got a response.
	StatusCode int

	// Message is a human-readable description, suitable for tool output.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err (or anything it wraps) is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// NewNotAuthenticatedError returns the error used when no token has been stored.
// authPageURL is where the user can start the OAuth flow.
func NewNotAuthenticatedError(authPageURL string) *Error {
	return &Error{
		Kind: KindNotAuthenticated,
		Message: fmt.Sprintf("Netatmo is not authenticated. Please visit %s to authenticate and connect your Netatmo account.",
			authPageURL),
	}
}

// NewHTTPError returns a KindHTTPFailure error. statusCode is 0 for transport errors.
func NewHTTPError(statusCode int, message string, err error) *Error {
	if message == "" && statusCode != 0 {
		message = fmt.Sprintf("response status code does not indicate success: %d (%s)",
			statusCode, http.StatusText(statusCode))
	}
	return &Error{
		Kind:       KindHTTPFailure,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// NewIOError returns a KindIOFailure error for a failed persistence operation.
func NewIOError(op string, err error) *Error {
	return &Error{
		Kind:    KindIOFailure,
		Message: fmt.Sprintf("token store %s failed", op),
		Err:     err,
	}
}

// NewCorruptionError returns a KindCorruption error for an unparsable token record.
func NewCorruptionError(source string, err error) *Error {
	return &Error{
		Kind:    KindCorruption,
		Message: fmt.Sprintf("token record %s is corrupted", source),
		Err:     err,
	}
}

// NewValidationError returns a KindValidationFailure error.
func NewValidationError(format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidationFailure,
		Message: fmt.Sprintf(format, args...),
	}
}
