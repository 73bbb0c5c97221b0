package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNotFound is returned when a stored analysis or recommendation does not exist
	ErrNotFound = errors.New("not found")

	// ErrProductNotFound is returned when a barcode cannot be resolved remotely
	ErrProductNotFound = errors.New("product not found in product database")

	// ErrLookupFailure is returned when the remote product database request fails
	ErrLookupFailure = errors.New("product lookup request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrKnowledgeUnavailable is returned before the first knowledge snapshot loads
	ErrKnowledgeUnavailable = errors.New("knowledge base not loaded")

	// Knowledge-base record anomalies
	ErrUnknownSeverity           = errors.New("unknown severity")
	ErrUnknownConflictType       = errors.New("unknown conflict type")
	ErrUnknownVerificationStatus = errors.New("unknown verification status")
	ErrMalformedRecord           = errors.New("malformed record")
)

// ValidationError rejects input before any computation runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Unwrap lets callers match any validation failure with ErrInvalidRequest.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// RecordError reports one knowledge-base record that was skipped during
// ingestion. Kind names the table ("ingredient", "conflict", "product").
type RecordError struct {
	Kind  string
	Index int
	Value string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d (%q): %v", e.Kind, e.Index, e.Value, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
