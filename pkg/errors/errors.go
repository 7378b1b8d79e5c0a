package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork          ErrorType = "network"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeServerError      ErrorType = "server_error"
	ErrorTypeBrowser          ErrorType = "browser"
	ErrorTypeProxyUnavailable ErrorType = "proxy_unavailable"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeExhausted        ErrorType = "exhausted"
	ErrorTypeUnknown          ErrorType = "unknown"
)

// Sentinel conditions that end a job or an attempt early
var (
	// ErrSkipLimit means too many consecutive duplicates were fetched for a job
	ErrSkipLimit = errors.New("consecutive duplicate limit reached")
	// ErrNoFreshContent means pagination surfaced no unprocessed thumbnails
	ErrNoFreshContent = errors.New("no fresh thumbnails after pagination")
	// ErrTargetNotReached means an attempt ended below the class target
	ErrTargetNotReached = errors.New("target count not reached")
)

// Error represents a typed failure raised by the scraping stack
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, message string, cause error) *Error {
	return &Error{Type: errorType, Message: message, Err: cause}
}

// Network wraps a transport-level failure
func Network(message string, cause error) *Error {
	return New(ErrorTypeNetwork, message, cause)
}

// Browser wraps a browser launch or DOM automation failure
func Browser(message string, cause error) *Error {
	return New(ErrorTypeBrowser, message, cause)
}

// Validation wraps a data-validation failure (undecodable or wrong color mode)
func Validation(message string, cause error) *Error {
	return New(ErrorTypeValidation, message, cause)
}

// Exhausted wraps an exhaustion condition such as a spent retry or skip budget
func Exhausted(message string, cause error) *Error {
	return New(ErrorTypeExhausted, message, cause)
}

// FromStatus maps an HTTP status code to a typed error
func FromStatus(statusCode int) *Error {
	var errorType ErrorType
	switch {
	case statusCode == 404:
		errorType = ErrorTypeNotFound
	case statusCode == 429:
		errorType = ErrorTypeRateLimit
	case statusCode >= 500:
		errorType = ErrorTypeServerError
	default:
		errorType = ErrorTypeUnknown
	}
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf("unexpected status code: %d", statusCode),
		Code:    statusCode,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeBrowser:
		return true
	case ErrorTypeNotFound, ErrorTypeValidation, ErrorTypeExhausted, ErrorTypeProxyUnavailable:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
