package domain

import (
	"errors"
	"fmt"
)

var (
	ErrActiveRequest   = errors.New("active request exists")
	ErrEmptyGeneration = errors.New("model produced no content")
	ErrSessionNotFound = errors.New("session not found")
	ErrRateLimited     = errors.New("rate limited by provider")
	ErrUnavailable     = errors.New("provider unavailable")
)

// ProviderError wraps a model capability failure with the HTTP status when known.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
