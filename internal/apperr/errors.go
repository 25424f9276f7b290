// Package apperr defines the error kinds shared across marghivasal.
// Adapters wrap one of these sentinels so callers can classify failures
// with errors.Is without knowing which backend produced them.
package apperr

import "errors"

var (
	// ErrValidation marks bad input. No network call was made.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork marks a transport failure reaching a remote service.
	ErrNetwork = errors.New("network error")
	// ErrBackend marks a non-success response or an unexpected response shape.
	ErrBackend = errors.New("backend error")
	// ErrNotFound marks a missing dictionary match or missing approved phrases.
	ErrNotFound = errors.New("not found")
	// ErrPersistence marks a local storage read or write failure.
	ErrPersistence = errors.New("persistence error")
)

// Kind returns the sentinel err wraps, or nil when err is not one of ours.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrNetwork, ErrBackend, ErrPersistence} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Retryable reports whether a failure should trigger the one-shot fallback.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrBackend)
}
