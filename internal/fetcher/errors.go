package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 408 and 429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeValidation indicates the response was received but did not match the expected schema
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTimeout indicates the request timed out
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeRateLimit,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "rate limit exceeded",
	}
}

// NewServerError creates a server error
func NewServerError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeServer,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "server returned an error",
	}
}

// NewClientError creates a client error
func NewClientError(statusCode int, message string) *FetchError {
	return &FetchError{
		Type:       ErrorTypeClient,
		Retryable:  false,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *FetchError {
	return &FetchError{
		Type:      ErrorTypeValidation,
		Retryable: false,
		Message:   message,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(statusCode)
	case statusCode == http.StatusRequestTimeout:
		return &FetchError{
			Type:       ErrorTypeTimeout,
			Retryable:  true,
			StatusCode: statusCode,
			Message:    "upstream request timeout",
		}
	case statusCode >= 500:
		return NewServerError(statusCode)
	case statusCode >= 400:
		return NewClientError(statusCode, fmt.Sprintf("client error: HTTP %d", statusCode))
	default:
		return &FetchError{
			Type:       ErrorTypeUnknown,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// ClassifyTransportError wraps an error returned by the HTTP client: a
// failed request, or a body that could not be decoded into the expected
// schema.
func ClassifyTransportError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		v := NewValidationError("malformed response body")
		v.Cause = err
		return v
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

// IsType reports whether err is a FetchError of the given type.
func IsType(err error, t ErrorType) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == t
}
