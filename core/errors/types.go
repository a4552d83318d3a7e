// Package errors implements the error taxonomy for the search aggregation
// engine. Four classes cover every failure mode: upstream provider failures
// (recovered locally), whole-search deadline exceedance and caller
// cancellation (the only classes that propagate), and query validation.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for errors.Is matching across package boundaries.
var (
	// ErrUpstream indicates one provider failed. Always recovered locally by
	// the orchestrator; never bubbles past it.
	ErrUpstream = errors.New("upstream provider error")

	// ErrSearchTimeout indicates the whole-aggregation deadline was exceeded.
	ErrSearchTimeout = errors.New("search deadline exceeded")

	// ErrAborted indicates caller-initiated cancellation. Not an application
	// error; suppressed from user-visible error paths.
	ErrAborted = errors.New("search aborted by caller")

	// ErrValidation indicates an empty or malformed query. Short-circuits
	// before cache or network are touched.
	ErrValidation = errors.New("invalid query")
)

// =============================================================================
// UpstreamError
// =============================================================================

// UpstreamError describes a failed call to one upstream provider. A non-2xx
// status, a network failure, or a partial/garbled response body all produce
// an UpstreamError; adapters never report partial success.
type UpstreamError struct {
	Provider   string
	Operation  string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: %s returned status %d", e.Provider, e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	if e.Err != nil {
		return errors.Join(ErrUpstream, e.Err)
	}
	return ErrUpstream
}

// Retryable reports whether the failure is worth retrying within the
// adapter's own budget slice. Rate limiting and server-side errors are
// retryable; client errors are not.
func (e *UpstreamError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode >= 400:
		return false
	default:
		// Network-level failure with no status.
		return true
	}
}

// NewUpstreamError builds an UpstreamError for a provider operation.
func NewUpstreamError(provider, operation string, status int, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Operation: operation, StatusCode: status, Err: err}
}

// =============================================================================
// SearchTimeoutError
// =============================================================================

// SearchTimeoutError reports that the total search budget was exhausted
// before aggregation completed.
type SearchTimeoutError struct {
	Query   string
	Budget  time.Duration
	Elapsed time.Duration
}

func (e *SearchTimeoutError) Error() string {
	return fmt.Sprintf("search %q exceeded budget %s (elapsed %s)", e.Query, e.Budget, e.Elapsed)
}

func (e *SearchTimeoutError) Unwrap() error {
	return errors.Join(ErrSearchTimeout, context.DeadlineExceeded)
}

// =============================================================================
// AbortedError
// =============================================================================

// AbortedError reports caller-initiated cancellation of a search or of an
// individual upstream call.
type AbortedError struct {
	Operation string
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("%s aborted", e.Operation)
}

func (e *AbortedError) Unwrap() error {
	return errors.Join(ErrAborted, context.Canceled)
}

// =============================================================================
// Classification
// =============================================================================

// FromContext maps a context error observed during an operation to the
// taxonomy: deadline exceedance becomes a timeout, cancellation becomes an
// abort. Returns nil when ctx carries no error.
func FromContext(ctx context.Context, operation string) error {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return &SearchTimeoutError{Query: operation}
	case context.Canceled:
		return &AbortedError{Operation: operation}
	default:
		return nil
	}
}

// IsAborted reports whether err is caller-initiated cancellation.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// IsTimeout reports whether err is budget exhaustion.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrSearchTimeout)
}

// IsRecoverable reports whether err may be absorbed by the orchestrator as
// "zero candidates from that source" instead of failing the whole search.
func IsRecoverable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return true
	}
	// A single adapter hitting its own slice deadline is recoverable; the
	// total-search deadline is not.
	return errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrSearchTimeout)
}
