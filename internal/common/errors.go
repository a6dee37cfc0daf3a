package common

import (
	"errors"
	"fmt"
)

// Error kinds persisted on documents and surfaced to API clients.
// Store these exact strings in DB.
const (
	KindUnsupportedFormat          = "UNSUPPORTED_FORMAT"
	KindCorruptArchive             = "CORRUPT_ARCHIVE"
	KindTextExtractionFailed       = "TEXT_EXTRACTION_FAILED"
	KindStructuredExtractionFailed = "STRUCTURED_EXTRACTION_FAILED"
	KindExtractionUnconfigured     = "EXTRACTION_UNCONFIGURED"
	KindRecordBuildFailed          = "RECORD_BUILD_FAILED"
	KindInternal                   = "INTERNAL"
)

// AppError carries a stable kind code alongside the human-readable message.
type AppError struct {
	Kind    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError with the given kind.
func NewAppError(kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the error kind, defaulting to INTERNAL for plain errors.
func KindOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Common application errors.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoRecord     = errors.New("no canonical record present for document")
)
