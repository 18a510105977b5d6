package adapters

import (
	"errors"
	"fmt"

	"vouch/internal/verification/models"
)

// FailureKind defines the normalized failure taxonomy for source adapters.
type FailureKind string

const (
	// FailureTimeout indicates the source took too long to respond
	FailureTimeout FailureKind = "timeout"

	// FailureBadData indicates the source returned invalid/malformed data
	FailureBadData FailureKind = "bad_data"

	// FailureOutage indicates the source is unavailable
	FailureOutage FailureKind = "outage"

	// FailureRateLimited indicates too many requests
	FailureRateLimited FailureKind = "rate_limited"

	// FailureInternal indicates an unexpected internal error
	FailureInternal FailureKind = "internal"
)

// SourceError wraps adapter failures with normalized categorization.
type SourceError struct {
	Kind       FailureKind
	Source     models.SourceCategory
	Message    string
	Underlying error
	Retryable  bool
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Source, e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Source, e.Kind, e.Message)
}

// Unwrap supports error unwrapping
func (e *SourceError) Unwrap() error {
	return e.Underlying
}

// NewSourceError creates a new normalized source error. Timeouts, outages
// and rate limits are transient and worth retrying.
func NewSourceError(kind FailureKind, source models.SourceCategory, message string, underlying error) *SourceError {
	retryable := kind == FailureTimeout ||
		kind == FailureOutage ||
		kind == FailureRateLimited

	return &SourceError{
		Kind:       kind,
		Source:     source,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// KindOf extracts the failure kind from an error
func KindOf(err error) FailureKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return FailureInternal
}
