// Package cache provides TTL-bounded caching of ranked search results keyed
// by normalized query, plus a similar-query index used as a last-resort
// fallback when every provider comes back empty.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/mealdex/mealdex/core/food"
)

// DefaultTTL is the default time-to-live for cached result lists.
const DefaultTTL = 5 * time.Minute

// DefaultMaxSize is the default maximum number of cached queries.
const DefaultMaxSize = 500

// Config configures the QueryCache.
type Config struct {
	TTL     time.Duration
	MaxSize int
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL, MaxSize: DefaultMaxSize}
}

// entry is one cached result list with its storage timestamp.
type entry struct {
	key      string
	results  []food.RankedResult
	storedAt time.Time
	element  *list.Element
}

// QueryCache is an LRU cache with TTL from normalized query to ranked
// results. Expired entries are evicted lazily on the read that finds them
// stale; there is no background sweep. Thread-safe.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List
	ttl     time.Duration
	maxSize int
}

// NewQueryCache creates a QueryCache with the given configuration.
func NewQueryCache(cfg Config) *QueryCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	return &QueryCache{
		entries: make(map[string]*entry),
		lru:     list.New(),
		ttl:     cfg.TTL,
		maxSize: cfg.MaxSize,
	}
}

// Get returns the cached results for a normalized query. A stale entry is
// removed and reported as a miss. Hits are promoted in the LRU order under
// the same lock acquisition.
func (c *QueryCache) Get(key string) ([]food.RankedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) > c.ttl {
		c.removeLocked(e)
		return nil, false
	}

	if e.element != nil {
		c.lru.MoveToFront(e.element)
	}
	return e.results, true
}

// Set stores a result list for a normalized query, evicting the least
// recently used entry when at capacity.
func (c *QueryCache) Set(key string, results []food.RankedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}
	for len(c.entries) >= c.maxSize && c.lru.Len() > 0 {
		c.evictOldestLocked()
	}

	e := &entry{key: key, results: results, storedAt: time.Now()}
	e.element = c.lru.PushFront(key)
	c.entries[key] = e
}

// Delete removes one entry.
func (c *QueryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.removeLocked(e)
	}
}

// Clear removes every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru = list.New()
}

// Size returns the number of entries currently held, including any that are
// stale but not yet lazily evicted.
func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeLocked drops an entry from both map and LRU list. Caller holds mu.
func (c *QueryCache) removeLocked(e *entry) {
	if e.element != nil {
		c.lru.Remove(e.element)
		e.element = nil
	}
	delete(c.entries, e.key)
}

// evictOldestLocked drops the least recently used entry. Caller holds mu.
func (c *QueryCache) evictOldestLocked() {
	oldest := c.lru.Back()
	if oldest == nil {
		return
	}
	key, ok := oldest.Value.(string)
	if !ok {
		c.lru.Remove(oldest)
		return
	}
	delete(c.entries, key)
	c.lru.Remove(oldest)
}
