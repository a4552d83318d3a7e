// Package flight coalesces concurrent identical search requests: at most one
// aggregation is in flight per normalized query, and every caller arriving
// while it runs joins the same pending result instead of triggering another
// upstream round-trip.
package flight

import (
	"context"
	"sync"

	mderrors "github.com/mealdex/mealdex/core/errors"
	"github.com/mealdex/mealdex/core/food"
)

// AggregateFunc performs one upstream aggregation for a query.
type AggregateFunc func(ctx context.Context) ([]food.RankedResult, error)

// call is one in-flight aggregation shared by its waiters.
type call struct {
	done    chan struct{}
	results []food.RankedResult
	err     error

	// waiters counts callers currently joined. When it reaches zero before
	// the call settles, the underlying work is aborted.
	waiters int
	settled bool
	cancel  context.CancelFunc
}

// Coalescer maps normalized query keys to in-flight aggregations. The lock
// guards only the map and waiter counts; it is never held across the
// upstream call itself.
type Coalescer struct {
	mu    sync.Mutex
	calls map[string]*call
}

// NewCoalescer creates an empty Coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{calls: make(map[string]*call)}
}

// Do returns the results of the aggregation for key, starting one if none is
// in flight. All callers sharing a call receive the identical result slice.
// The in-flight entry is removed unconditionally when the call settles.
//
// Cancelling ctx detaches only this caller. If it was the sole remaining
// waiter the underlying aggregation is aborted too; otherwise the work
// continues for the benefit of the other waiters.
func (c *Coalescer) Do(ctx context.Context, key string, fn AggregateFunc) ([]food.RankedResult, error) {
	c.mu.Lock()
	if existing, ok := c.calls[key]; ok {
		existing.waiters++
		c.mu.Unlock()
		return c.wait(ctx, key, existing)
	}

	// The aggregation runs on a context detached from the first caller so
	// that it survives that caller's cancellation while other waiters
	// remain.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cl := &call{done: make(chan struct{}), waiters: 1, cancel: cancel}
	c.calls[key] = cl
	c.mu.Unlock()

	go c.run(key, cl, runCtx, fn)

	return c.wait(ctx, key, cl)
}

// run executes the aggregation and settles the call.
func (c *Coalescer) run(key string, cl *call, ctx context.Context, fn AggregateFunc) {
	results, err := fn(ctx)

	c.mu.Lock()
	cl.results = results
	cl.err = err
	cl.settled = true
	delete(c.calls, key)
	c.mu.Unlock()

	cl.cancel()
	close(cl.done)
}

// wait blocks until the call settles or the caller's context ends.
func (c *Coalescer) wait(ctx context.Context, key string, cl *call) ([]food.RankedResult, error) {
	select {
	case <-cl.done:
		return cl.results, cl.err
	case <-ctx.Done():
		c.detach(cl)
		if err := mderrors.FromContext(ctx, key); err != nil {
			return nil, err
		}
		return nil, ctx.Err()
	}
}

// detach removes one waiter from a call, aborting the underlying work when
// nobody is left waiting for it.
func (c *Coalescer) detach(cl *call) {
	c.mu.Lock()
	cl.waiters--
	abandon := cl.waiters <= 0 && !cl.settled
	c.mu.Unlock()

	if abandon {
		cl.cancel()
	}
}

// Count returns the number of aggregations currently in flight.
func (c *Coalescer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
