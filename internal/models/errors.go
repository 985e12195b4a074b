package models

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds for the embedding pipeline. Callers match with errors.Is so
// each kind can be handled exhaustively at the API boundary instead of being
// caught generically.
var (
	// ErrInvalidArgument marks user-correctable input errors (400).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks lookups of absent documents (404).
	ErrNotFound = errors.New("not found")
	// ErrProviderUnavailable marks an unreachable or failing embedding endpoint.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	// ErrEmptyResult marks a successful provider response carrying zero vectors.
	ErrEmptyResult = errors.New("embedding provider returned no vectors")
	// ErrIndexWriteFailed marks a write rejected by the backing index.
	ErrIndexWriteFailed = errors.New("index write failed")
	// ErrSearchFailed marks a query rejected by the backing index.
	ErrSearchFailed = errors.New("search failed")
)

// NewInvalidArgument returns an ErrInvalidArgument with a caller-facing message.
func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// IsBlank reports whether s is empty or whitespace-only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
