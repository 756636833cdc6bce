package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")

	// ErrSourceUnavailable indicates the store was unreachable while loading
	// sources. Fatal to the run: no branch is started.
	ErrSourceUnavailable = errors.New("source store unavailable")

	// ErrSynthesizeFailed indicates the store read during synthesis failed
	// after retries were exhausted. Fatal: no digest is produced.
	ErrSynthesizeFailed = errors.New("synthesis failed")

	// ErrProviderFatal indicates a non-retryable provider failure (auth error,
	// 4xx other than 429, malformed response). The offending source is skipped.
	ErrProviderFatal = errors.New("provider call failed fatally")

	// ErrRunDeadlineExceeded indicates the whole-run timeout fired. Not fatal:
	// branches are cancelled and synthesis proceeds with partial data.
	ErrRunDeadlineExceeded = errors.New("run deadline exceeded")

	// ErrStoreConflict indicates a concurrent insert already claimed the
	// same (run-date, article-url) pair. Callers fall back to
	// IncrementMention rather than treating this as a failure.
	ErrStoreConflict = errors.New("store conflict on run-date and article url")
)

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
