package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateAccount   = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSearchNotFound     = errors.New("saved search not found")
	ErrValidation         = errors.New("validation failed")
)

// HTTPError wraps a non-200 origin status.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// SourceFetchError records a failed fetch of one external source. It is
// isolated per source and never surfaced to the caller of a batch run.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// DeliveryError records a failed delivery of one notification unit.
type DeliveryError struct {
	Email  string
	Search string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s for search %q: %v", e.Email, e.Search, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
