// Package engine composes the search aggregation pipeline into a single
// façade: query normalization, cache lookup, request coalescing, budgeted
// upstream aggregation, deduplication, ranking, and result caching. One
// Engine instance exclusively owns its cache, in-flight map, and debounce
// timers; nothing else mutates them.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mderrors "github.com/mealdex/mealdex/core/errors"
	"github.com/mealdex/mealdex/core/events"
	"github.com/mealdex/mealdex/core/food"
	"github.com/mealdex/mealdex/core/search/cache"
	"github.com/mealdex/mealdex/core/search/debounce"
	"github.com/mealdex/mealdex/core/search/dedup"
	"github.com/mealdex/mealdex/core/search/flight"
	"github.com/mealdex/mealdex/core/search/orchestrator"
	"github.com/mealdex/mealdex/core/search/rank"
	"github.com/mealdex/mealdex/core/search/similarity"
	"github.com/mealdex/mealdex/core/upstream"
)

// interactiveKey is the debounce key for the keystroke-driven search path.
// One engine serves one interactive search surface; successive keystrokes
// supersede each other under this key.
const interactiveKey = "interactive"

// Config configures an Engine.
type Config struct {
	// Mode and Budget control the orchestrator (see orchestrator.Config).
	Mode   orchestrator.Mode
	Budget time.Duration

	// CacheTTL and CacheMaxSize control the query cache.
	CacheTTL     time.Duration
	CacheMaxSize int

	// DebounceWindow is the interactive quiet window.
	DebounceWindow time.Duration

	// Matcher holds the duplicate-match thresholds.
	Matcher similarity.Config

	// Rank holds ranking boosts and the result cap.
	Rank rank.Config

	// SourceRank orders sources for representative election.
	SourceRank []food.Source
}

// DefaultConfig returns engine defaults: parallel mode, 800ms budget, 5min
// cache TTL, 300ms debounce window.
func DefaultConfig() Config {
	return Config{
		Mode:           orchestrator.ModeParallel,
		Budget:         orchestrator.DefaultBudget,
		CacheTTL:       cache.DefaultTTL,
		CacheMaxSize:   cache.DefaultMaxSize,
		DebounceWindow: debounce.DefaultWindow,
		Matcher:        similarity.DefaultConfig(),
		Rank:           rank.DefaultConfig(),
		SourceRank:     []food.Source{food.SourceFoodData, food.SourceOpenFoods},
	}
}

// Stats is a diagnostic snapshot of the engine's shared state.
type Stats struct {
	CacheSize       int `json:"cache_size"`
	InFlightCount   int `json:"in_flight_count"`
	PendingDebounce int `json:"pending_debounce"`
}

// Engine is the search aggregation façade.
type Engine struct {
	orchestrator *orchestrator.Orchestrator
	deduplicator *dedup.Deduplicator
	ranker       *rank.Ranker

	cache     *cache.QueryCache
	fallback  *cache.FallbackIndex
	coalescer *flight.Coalescer
	debouncer *debounce.Controller

	adapters map[food.Source]upstream.Adapter
	details  *upstream.DetailCache

	logger *zap.Logger
	sink   events.Sink
}

// New creates an Engine over the given adapters. A nil logger or sink is
// replaced with a no-op.
func New(adapters []upstream.Adapter, cfg Config, logger *zap.Logger, sink events.Sink) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = events.NopSink{}
	}

	details, err := upstream.NewDetailCache(0)
	if err != nil {
		return nil, err
	}

	bySource := make(map[food.Source]upstream.Adapter, len(adapters))
	for _, a := range adapters {
		bySource[a.Source()] = a
	}

	matcher := similarity.NewMatcher(cfg.Matcher)

	return &Engine{
		orchestrator: orchestrator.New(adapters, orchestrator.Config{Mode: cfg.Mode, Budget: cfg.Budget}, logger, sink),
		deduplicator: dedup.NewDeduplicator(matcher, cfg.SourceRank),
		ranker:       rank.NewRanker(cfg.Rank),
		cache:        cache.NewQueryCache(cache.Config{TTL: cfg.CacheTTL, MaxSize: cfg.CacheMaxSize}),
		fallback:     cache.NewFallbackIndex(cfg.CacheTTL, 0),
		coalescer:    flight.NewCoalescer(),
		debouncer:    debounce.NewController(cfg.DebounceWindow),
		adapters:     bySource,
		details:      details,
		logger:       logger,
		sink:         sink,
	}, nil
}

// Search aggregates ranked results for a free-text query under the default
// budget. An empty result list is a valid, non-error outcome; only hard
// failures (timeout, cancellation) return an error.
func (e *Engine) Search(ctx context.Context, query string) ([]food.RankedResult, error) {
	return e.SearchWithBudget(ctx, query, 0)
}

// SearchWithBudget aggregates with an explicit total budget. A non-positive
// budget uses the configured default.
//
// An empty or whitespace-only query returns an empty list synchronously
// without touching the cache, the coalescer, or any adapter.
func (e *Engine) SearchWithBudget(ctx context.Context, query string, budget time.Duration) ([]food.RankedResult, error) {
	normalized := food.NormalizeQuery(query)
	if normalized == "" {
		return []food.RankedResult{}, nil
	}

	if results, ok := e.cache.Get(normalized); ok {
		return results, nil
	}

	return e.coalescer.Do(ctx, normalized, func(runCtx context.Context) ([]food.RankedResult, error) {
		return e.aggregate(runCtx, normalized, budget)
	})
}

// aggregate performs one full upstream round-trip for a normalized query.
// Exactly one aggregate runs per in-flight key; all coalesced callers share
// its outcome.
func (e *Engine) aggregate(ctx context.Context, normalized string, budget time.Duration) ([]food.RankedResult, error) {
	start := time.Now()
	searchID := uuid.New().String()

	pool, err := e.orchestrator.AggregateWithBudget(ctx, normalized, budget)
	if err != nil {
		return nil, err
	}

	if len(pool.Candidates) == 0 {
		return e.degradedResults(normalized, searchID, start, pool.Sources), nil
	}

	deduped := e.deduplicator.Deduplicate(pool.Candidates)
	results := e.ranker.Rank(deduped)

	e.cache.Set(normalized, results)
	e.fallback.Remember(normalized, results)

	e.sink.OnSearchCompleted(events.SearchCompleted{
		SearchID:    searchID,
		Query:       normalized,
		ResultCount: len(results),
		Elapsed:     time.Since(start),
		Sources:     pool.Sources,
	})
	return results, nil
}

// degradedResults serves the similar-query fallback after every provider
// came back empty. Degraded results are not cached under the failing query:
// a later retry should hit the network again, and the donor query's entry is
// already cached under its own key.
func (e *Engine) degradedResults(normalized, searchID string, start time.Time, sources []food.Source) []food.RankedResult {
	donor, results, ok := e.fallback.FindSimilar(normalized)
	if !ok {
		results = []food.RankedResult{}
	} else {
		e.logger.Info("serving degraded results from similar cached query",
			zap.String("query", normalized),
			zap.String("donor", donor),
			zap.Int("results", len(results)),
		)
	}

	e.sink.OnSearchCompleted(events.SearchCompleted{
		SearchID:    searchID,
		Query:       normalized,
		ResultCount: len(results),
		Elapsed:     time.Since(start),
		Sources:     sources,
		Degraded:    ok,
	})
	return results
}

// SearchDebounced is the fire-and-forget interactive variant. Rapid
// successive calls within the quiet window supersede each other; only the
// most recent query is aggregated, and onResult is invoked at most once per
// quiet window. Hard failures deliver an empty list.
func (e *Engine) SearchDebounced(query string, onResult func([]food.RankedResult)) {
	e.debouncer.Call(interactiveKey, query, func(latest string) {
		results, err := e.Search(context.Background(), latest)
		if err != nil {
			if !mderrors.IsAborted(err) {
				e.logger.Warn("debounced search failed",
					zap.String("query", latest),
					zap.Error(err),
				)
			}
			results = []food.RankedResult{}
		}
		onResult(results)
	})
}

// Detail hydrates one candidate by source and provider-local ID, consulting
// the detail cache first.
func (e *Engine) Detail(ctx context.Context, source food.Source, id string) (food.Candidate, error) {
	if id == "" {
		return food.Candidate{}, mderrors.ErrValidation
	}
	adapter, ok := e.adapters[source]
	if !ok {
		return food.Candidate{}, mderrors.ErrValidation
	}

	if candidate, ok := e.details.Get(source, id); ok {
		return candidate, nil
	}

	candidate, err := adapter.FetchDetail(ctx, id)
	if err != nil {
		return food.Candidate{}, err
	}
	e.details.Set(candidate)
	return candidate, nil
}

// Stats returns a diagnostic snapshot.
func (e *Engine) Stats() Stats {
	return Stats{
		CacheSize:       e.cache.Size(),
		InFlightCount:   e.coalescer.Count(),
		PendingDebounce: e.debouncer.Pending(),
	}
}

// Close stops the debounce timers and releases cache resources. In-flight
// aggregations are left to settle on their own.
func (e *Engine) Close() {
	e.debouncer.Stop()
	e.details.Close()
}
