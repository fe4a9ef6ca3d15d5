package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by handlers, services and tools
var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrConflict         = errors.New("slot no longer available")
	ErrNotConfigured    = errors.New("missing configuration")
)

// UpstreamError wraps a transport failure of an external provider
// (calendar, messaging, ad-conversion)
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps err as a provider transport failure
func NewUpstreamError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Err: err}
}
