// Package orchestrator allocates the total latency budget across upstream
// adapters, invokes them in parallel or in priority order, and assembles the
// raw candidate pool while tolerating partial upstream failure.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	mderrors "github.com/mealdex/mealdex/core/errors"
	"github.com/mealdex/mealdex/core/events"
	"github.com/mealdex/mealdex/core/food"
	"github.com/mealdex/mealdex/core/upstream"
	"golang.org/x/sync/errgroup"
)

// Mode selects how adapters share the budget.
type Mode string

const (
	// ModeParallel queries all adapters concurrently with an even budget
	// split. Used when multiple equally-authoritative sources exist and the
	// product wants all of them represented.
	ModeParallel Mode = "parallel"

	// ModeFallback queries the first adapter with roughly half the budget
	// and only consults the next one when the primary produced nothing
	// (zero candidates or an error).
	ModeFallback Mode = "fallback"
)

// DefaultBudget is the total wall-clock budget for one aggregation.
const DefaultBudget = 800 * time.Millisecond

// Config configures the orchestrator.
type Config struct {
	Mode   Mode          `yaml:"mode"`
	Budget time.Duration `yaml:"budget"`
}

// DefaultConfig returns parallel mode with the default budget.
func DefaultConfig() Config {
	return Config{Mode: ModeParallel, Budget: DefaultBudget}
}

// Pool is the raw aggregation output before deduplication and ranking.
type Pool struct {
	// Candidates is the flat merged candidate list in adapter order.
	Candidates []food.Candidate

	// Sources lists the providers that responded without error.
	Sources []food.Source
}

// Orchestrator fans a query out to the configured adapters under the budget.
type Orchestrator struct {
	adapters []upstream.Adapter
	config   Config
	logger   *zap.Logger
	sink     events.Sink
}

// New creates an Orchestrator. Adapter order is priority order in fallback
// mode. A nil logger or sink is replaced with a no-op.
func New(adapters []upstream.Adapter, config Config, logger *zap.Logger, sink events.Sink) *Orchestrator {
	if config.Budget <= 0 {
		config.Budget = DefaultBudget
	}
	if config.Mode == "" {
		config.Mode = ModeParallel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Orchestrator{adapters: adapters, config: config, logger: logger, sink: sink}
}

// Budget returns the configured total budget.
func (o *Orchestrator) Budget() time.Duration {
	return o.config.Budget
}

// Aggregate queries the adapters for a normalized query and returns the raw
// candidate pool. Individual adapter failures are logged and contribute zero
// candidates; only total-deadline exceedance and caller cancellation return
// an error.
func (o *Orchestrator) Aggregate(ctx context.Context, query string) (*Pool, error) {
	return o.AggregateWithBudget(ctx, query, o.config.Budget)
}

// AggregateWithBudget runs one aggregation under an explicit budget. The
// total deadline is independent of per-adapter deadlines and guards against
// adapters that ignore their slice; exceeding it aborts all adapters.
func (o *Orchestrator) AggregateWithBudget(ctx context.Context, query string, budget time.Duration) (*Pool, error) {
	if budget <= 0 {
		budget = o.config.Budget
	}
	start := time.Now()

	totalCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	poolCh := make(chan *Pool, 1)
	go func() {
		switch o.config.Mode {
		case ModeFallback:
			poolCh <- o.runFallback(totalCtx, query, budget)
		default:
			poolCh <- o.runParallel(totalCtx, query, budget)
		}
	}()

	select {
	case pool := <-poolCh:
		if err := o.callerError(ctx, query, budget, start); err != nil {
			return nil, err
		}
		return pool, nil
	case <-totalCtx.Done():
		if err := o.callerError(ctx, query, budget, start); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		o.sink.OnBudgetExceeded(events.BudgetExceeded{
			Operation: "search",
			Elapsed:   elapsed,
			Budget:    budget,
		})
		return nil, &mderrors.SearchTimeoutError{Query: query, Budget: budget, Elapsed: elapsed}
	}
}

// callerError distinguishes caller cancellation (and caller deadlines) from
// the orchestrator's own budget deadline.
func (o *Orchestrator) callerError(ctx context.Context, query string, budget time.Duration, start time.Time) error {
	switch ctx.Err() {
	case context.Canceled:
		return &mderrors.AbortedError{Operation: "search " + query}
	case context.DeadlineExceeded:
		return &mderrors.SearchTimeoutError{Query: query, Budget: budget, Elapsed: time.Since(start)}
	default:
		return nil
	}
}

// =============================================================================
// Parallel Mode
// =============================================================================

// runParallel invokes every adapter concurrently. With more than one adapter
// the budget is split evenly so each source gets represented instead of the
// fastest one starving the rest.
func (o *Orchestrator) runParallel(ctx context.Context, query string, budget time.Duration) *Pool {
	slice := budget
	if len(o.adapters) > 1 {
		slice = budget / time.Duration(len(o.adapters))
	}

	results := make([][]food.Candidate, len(o.adapters))
	errs := make([]error, len(o.adapters))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, adapter := range o.adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			results[i], errs[i] = o.callAdapter(groupCtx, adapter, query, slice)
			// Adapter failures never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	pool := &Pool{}
	for i, adapter := range o.adapters {
		if errs[i] != nil {
			continue
		}
		pool.Candidates = append(pool.Candidates, results[i]...)
		pool.Sources = append(pool.Sources, adapter.Source())
	}
	return pool
}

// =============================================================================
// Fallback Mode
// =============================================================================

// runFallback queries the primary with roughly half the budget and falls
// through to the next adapter, with whatever budget remains, only when the
// primary produced no candidates. An error also falls through.
func (o *Orchestrator) runFallback(ctx context.Context, query string, budget time.Duration) *Pool {
	pool := &Pool{}
	start := time.Now()

	for i, adapter := range o.adapters {
		slice := budget / 2
		if i > 0 {
			slice = budget - time.Since(start)
			if slice <= 0 {
				break
			}
		}

		candidates, err := o.callAdapter(ctx, adapter, query, slice)
		if err == nil {
			pool.Sources = append(pool.Sources, adapter.Source())
			if len(candidates) > 0 {
				pool.Candidates = candidates
				return pool
			}
		}
	}
	return pool
}

// =============================================================================
// Adapter Invocation
// =============================================================================

// callAdapter runs one adapter search bounded to its budget slice. Errors
// and overruns are logged and surfaced to the caller for accounting; the
// caller treats them as zero candidates.
func (o *Orchestrator) callAdapter(ctx context.Context, adapter upstream.Adapter, query string, slice time.Duration) ([]food.Candidate, error) {
	adapterCtx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	start := time.Now()
	candidates, err := adapter.Search(adapterCtx, query)
	elapsed := time.Since(start)

	if elapsed > slice {
		o.sink.OnBudgetExceeded(events.BudgetExceeded{
			Operation: "adapter:" + adapter.Name(),
			Elapsed:   elapsed,
			Budget:    slice,
		})
	}

	if err != nil {
		if mderrors.IsAborted(err) && ctx.Err() != nil {
			// Whole-search cancellation, not a provider fault.
			return nil, err
		}
		o.logger.Warn("upstream adapter failed, treating as zero candidates",
			zap.String("adapter", adapter.Name()),
			zap.String("query", query),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	o.logger.Debug("upstream adapter returned",
		zap.String("adapter", adapter.Name()),
		zap.Int("candidates", len(candidates)),
		zap.Duration("elapsed", elapsed),
	)
	return candidates, nil
}
