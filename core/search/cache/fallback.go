package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mealdex/mealdex/core/food"
)

// DefaultSimilarQueryThreshold is the minimum Jaccard similarity between the
// word sets of two queries for one to serve as a fallback source for the
// other.
const DefaultSimilarQueryThreshold = 0.5

// DefaultFallbackMaxQueries bounds the fallback index.
const DefaultFallbackMaxQueries = 200

// FallbackIndex remembers recently completed queries and their results so
// that a query yielding nothing from any provider can splice in results from
// a similar earlier query. The index expires entries on its own TTL:
// stale-but-unevicted QueryCache entries are deliberately not eligible as
// fallback sources for a different query.
type FallbackIndex struct {
	recent    *lru.LRU[string, []food.RankedResult]
	threshold float64
}

// NewFallbackIndex creates a FallbackIndex. TTL should normally match the
// QueryCache TTL; non-positive values fall back to DefaultTTL.
func NewFallbackIndex(ttl time.Duration, threshold float64) *FallbackIndex {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarQueryThreshold
	}
	return &FallbackIndex{
		recent:    lru.NewLRU[string, []food.RankedResult](DefaultFallbackMaxQueries, nil, ttl),
		threshold: threshold,
	}
}

// Remember records a completed query and its ranked results.
func (f *FallbackIndex) Remember(normalizedQuery string, results []food.RankedResult) {
	if len(results) == 0 {
		return
	}
	f.recent.Add(normalizedQuery, results)
}

// FindSimilar scans remembered queries for the best one whose word set has
// Jaccard similarity >= threshold with the given query. Returned results are
// copies tagged Degraded; the original cached entries are untouched.
func (f *FallbackIndex) FindSimilar(normalizedQuery string) (string, []food.RankedResult, bool) {
	words := food.QueryWords(normalizedQuery)
	if len(words) == 0 {
		return "", nil, false
	}

	bestScore := 0.0
	bestQuery := ""
	for _, key := range f.recent.Keys() {
		if key == normalizedQuery {
			continue
		}
		score := queryJaccard(words, food.QueryWords(key))
		if score >= f.threshold && score > bestScore {
			bestScore = score
			bestQuery = key
		}
	}
	if bestQuery == "" {
		return "", nil, false
	}

	results, ok := f.recent.Get(bestQuery)
	if !ok {
		return "", nil, false
	}

	degraded := make([]food.RankedResult, len(results))
	for i, r := range results {
		r.Degraded = true
		degraded[i] = r
	}
	return bestQuery, degraded, true
}

// Len returns the number of remembered queries.
func (f *FallbackIndex) Len() int {
	return f.recent.Len()
}

// queryJaccard computes the Jaccard index over two query word lists.
func queryJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, w := range a {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, w := range b {
		setB[w] = struct{}{}
	}
	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
