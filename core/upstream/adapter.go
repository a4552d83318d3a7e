// Package upstream defines the adapter contract for external food/recipe
// data providers and the HTTP plumbing shared by concrete adapters. Each
// provider has its own rate limits and response shape; adapters normalize
// everything into the common candidate schema.
package upstream

import (
	"context"

	"github.com/mealdex/mealdex/core/food"
)

// Adapter is the capability contract for one upstream provider. Adapters are
// stateless aside from connection-level resources and safe for concurrent
// use without synchronization.
//
// Both operations fail with *errors.UpstreamError on non-2xx responses,
// network failures, and partial or garbled payloads; they never report
// partial success. A cancelled context fails with *errors.AbortedError
// rather than hanging.
type Adapter interface {
	// Name returns the provider's short name for logging and events.
	Name() string

	// Source returns the source tag stamped on candidates.
	Source() food.Source

	// Search returns normalized candidates for a free-text query.
	Search(ctx context.Context, query string) ([]food.Candidate, error)

	// FetchDetail hydrates one candidate by provider-local ID, typically to
	// fill in the full nutrient vector absent from search hits.
	FetchDetail(ctx context.Context, id string) (food.Candidate, error)
}
