package domain

import (
	"errors"
	"fmt"
)

// ValidationError marks a permanent caller-input defect. It is never retried
// and maps to HTTP 400 at the webhook boundary.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// APIError marks an exchange-level rejection that is not a transport failure
// and is not self-correcting. Retried, then maps to HTTP 502.
type APIError struct {
	Msg string
	Err error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *APIError) Unwrap() error { return e.Err }

func NewAPIError(format string, args ...any) *APIError {
	return &APIError{Msg: fmt.Sprintf(format, args...)}
}

// NetworkError marks a transient transport failure talking to the exchange.
// Retried, then maps to HTTP 503.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseParseError marks an exchange response whose shape could not be
// interpreted. It is treated exactly like an APIError by the retry policy.
type ResponseParseError struct {
	Raw string
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("unrecoverable exchange response %q: %v", e.Raw, e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var n *NetworkError
	return errors.As(err, &n)
}

// IsAPI reports whether err is an exchange-level failure, including
// unparseable responses.
func IsAPI(err error) bool {
	var a *APIError
	var p *ResponseParseError
	return errors.As(err, &a) || errors.As(err, &p)
}

// IsRetryable reports whether the retry controller may re-attempt after err.
// Validation defects are permanent; everything classified network or API is
// worth another try.
func IsRetryable(err error) bool {
	return IsNetwork(err) || IsAPI(err)
}

// ErrorKind returns the taxonomy name used in audit records.
func ErrorKind(err error) string {
	switch {
	case IsValidation(err):
		return "ValidationError"
	case IsNetwork(err):
		return "NetworkError"
	case IsAPI(err):
		return "APIError"
	default:
		return "UnknownError"
	}
}
