package upstream

import (
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/mealdex/mealdex/core/food"
)

const (
	detailCacheNumCounters = 1e5
	detailCacheMaxCost     = 1 << 22 // ~4MB of hydrated candidates
	detailCacheBufferItems = 64
	detailCacheTTL         = 30 * time.Minute
)

// DetailCache caches hydrated candidates from FetchDetail calls. Detail
// records change rarely upstream, so they outlive search-result cache
// entries by a wide margin.
type DetailCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewDetailCache creates a DetailCache. A non-positive TTL uses the default.
func NewDetailCache(ttl time.Duration) (*DetailCache, error) {
	if ttl <= 0 {
		ttl = detailCacheTTL
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: detailCacheNumCounters,
		MaxCost:     detailCacheMaxCost,
		BufferItems: detailCacheBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &DetailCache{cache: cache, ttl: ttl}, nil
}

// Get returns the cached candidate for a source-qualified key.
func (d *DetailCache) Get(source food.Source, id string) (food.Candidate, bool) {
	value, ok := d.cache.Get(key(source, id))
	if !ok {
		return food.Candidate{}, false
	}
	candidate, ok := value.(food.Candidate)
	return candidate, ok
}

// Set stores a hydrated candidate. Cost is approximated by name plus
// ingredient bytes.
func (d *DetailCache) Set(candidate food.Candidate) {
	cost := int64(len(candidate.Name)) + 64
	for _, ing := range candidate.Ingredients {
		cost += int64(len(ing))
	}
	d.cache.SetWithTTL(key(candidate.Source, candidate.ID), candidate, cost, d.ttl)
}

// Close releases the cache's resources.
func (d *DetailCache) Close() {
	d.cache.Close()
}

func key(source food.Source, id string) string {
	return string(source) + "/" + id
}
