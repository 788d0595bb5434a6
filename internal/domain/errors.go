package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream indicates that a call to the upstream search API failed.
	ErrUpstream = errors.New("upstream error")

	// ErrRateLimited indicates that the upstream API rejected the call for quota reasons.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// UpstreamError provides details about a failed upstream call: a transport failure,
// a non-success status, or a body that could not be decoded.
type UpstreamError struct {
	// Endpoint names the upstream operation, e.g. "search" or "author_affiliation".
	Endpoint string
	// StatusCode is the upstream HTTP status, 0 when no response was received.
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream %s failed: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("upstream %s failed (status %d): %s", e.Endpoint, e.StatusCode, e.Message)
}

// Unwrap exposes ErrUpstream, ErrRateLimited for 429 responses, and the cause.
func (e *UpstreamError) Unwrap() []error {
	errs := []error{ErrUpstream}
	if e.StatusCode == http.StatusTooManyRequests {
		errs = append(errs, ErrRateLimited)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(endpoint string, statusCode int, message string, cause error) *UpstreamError {
	return &UpstreamError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
