package generation

import (
	"errors"

	"mercator-hq/quill/pkg/storage"
)

var (
	// ErrInvalidRequest is returned for an empty or oversized prompt.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrProviderNotFound is returned when the requested provider is not
	// registered, or when no provider is named and no default is configured.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrNotFound is returned by Get for an unknown generation ID.
	ErrNotFound = storage.ErrNotFound
)

// Status values recorded in metrics.
const (
	StatusSuccess        = "success"
	StatusInvalid        = "invalid"
	StatusProviderError  = "provider_error"
	StatusRecoveryFailed = "recovery_failed"
	StatusStorageError   = "storage_error"
)

// ErrorTypeRecoveryFailed is stored on records whose output could not be
// interpreted.
const ErrorTypeRecoveryFailed = "recovery_failed"
