// Package domain defines the core domain models for ChatVault.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured code.
type DomainError struct {
	Code    string // Error code (e.g., "CV-STOR-5000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches DomainErrors by code so that sentinel comparison works
// across WithDetails/WithCause copies.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from a DomainError,
// or returns an empty string.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Conversation Errors (CONV)
// ============================================================================

var (
	// ErrInvalidIdentity indicates a conversation identity could not be derived.
	ErrInvalidIdentity = NewDomainError("CV-CONV-4000", "invalid conversation identity")
)

// ============================================================================
// Backup Errors (BKUP)
// ============================================================================

var (
	// ErrRecordValidation indicates a backup record failed validation.
	ErrRecordValidation = NewDomainError("CV-BKUP-4001", "backup record validation failed")

	// ErrRecordNotFound indicates the requested backup record was not found.
	ErrRecordNotFound = NewDomainError("CV-BKUP-4040", "backup record not found")
)

// ============================================================================
// Copy Channel Errors (COPY)
// ============================================================================

var (
	// ErrCopyFailed indicates a deep copy request failed.
	// Fatal to the backup attempt; no partial record is built.
	ErrCopyFailed = NewDomainError("CV-COPY-5000", "deep copy failed")

	// ErrCopyChannelUnavailable indicates the copy channel is down.
	// All backups fail closed until the channel is recreated.
	ErrCopyChannelUnavailable = NewDomainError("CV-COPY-5030", "copy channel unavailable")
)

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrStorageWrite indicates a store write failed; the candidate
	// record is discarded.
	ErrStorageWrite = NewDomainError("CV-STOR-5000", "storage write failed")

	// ErrStorageRead indicates a store read failed.
	ErrStorageRead = NewDomainError("CV-STOR-5001", "storage read failed")

	// ErrEvictionFailed indicates a retention eviction delete failed.
	// Non-fatal: eviction is best-effort and logged per failed deletion.
	ErrEvictionFailed = NewDomainError("CV-STOR-5002", "backup eviction failed")
)

// ============================================================================
// Restore Errors (RSTR)
// ============================================================================

var (
	// ErrRestoreFailed indicates a restore aborted; details carry the
	// failed step.
	ErrRestoreFailed = NewDomainError("CV-RSTR-5000", "restore failed")
)

// ============================================================================
// Host Errors (HOST)
// ============================================================================

var (
	// ErrNotSupported indicates the host does not expose an optional
	// capability. Optional restore steps treat it as skip, not failure.
	ErrNotSupported = NewDomainError("CV-HOST-5010", "host capability not supported")

	// ErrHostUnavailable indicates a required host operation failed.
	ErrHostUnavailable = NewDomainError("CV-HOST-5030", "host operation failed")
)

// ============================================================================
// Internal Errors (CORE)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal error.
	ErrInternal = NewDomainError("CV-CORE-5000", "internal error")
)
