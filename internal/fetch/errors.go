// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrFetchExhausted marks a fetch where every route (or every retry
	// attempt) failed.
	ErrFetchExhausted = errors.New("all fetch routes failed")

	// ErrCancelled marks a fetch abandoned because its run was superseded.
	// Callers treat it as a no-op, never as a displayable error.
	ErrCancelled = errors.New("fetch cancelled")

	errNoRoutes = errors.New("no fetch routes configured")
)

// StatusError reports a non-2xx response from one route.
type StatusError struct {
	Route      string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("route %s: HTTP error status %d", e.Route, e.StatusCode)
}

// ExhaustedError is returned when no route produced a successful response.
// It wraps both ErrFetchExhausted and the last route error.
type ExhaustedError struct {
	URL  string
	Last error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetching %s: %v: %v", e.URL, ErrFetchExhausted, e.Last)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrFetchExhausted, e.Last}
}

// IsCancelled reports whether err stems from a cancelled run.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
