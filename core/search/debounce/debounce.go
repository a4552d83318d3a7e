// Package debounce batches rapid successive interactive queries so that only
// the last call within a quiet window is actually forwarded. It sits only in
// front of keystroke-driven callers; programmatic searches bypass it.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the default quiet window for interactive queries.
const DefaultWindow = 300 * time.Millisecond

// pending is the latest call recorded for one key.
type pending struct {
	timer *time.Timer
	query string
	fire  func(query string)
}

// Controller holds one timer per key. A new call for a key supersedes the
// previous one: its query and callback are discarded, never queued, and the
// window restarts.
type Controller struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*pending
	stopped bool
}

// NewController creates a Controller with the given quiet window.
// Non-positive windows fall back to DefaultWindow.
func NewController(window time.Duration) *Controller {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Controller{
		window:  window,
		pending: make(map[string]*pending),
	}
}

// Call schedules fire(query) to run after the quiet window elapses with no
// further Call for the same key. The callback runs on a timer goroutine.
func (c *Controller) Call(key, query string, fire func(query string)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	if p, ok := c.pending[key]; ok {
		p.query = query
		p.fire = fire
		p.timer.Reset(c.window)
		return
	}

	p := &pending{query: query, fire: fire}
	p.timer = time.AfterFunc(c.window, func() {
		c.expire(key, p)
	})
	c.pending[key] = p
}

// expire delivers the most recent call for a key once its window lapses.
func (c *Controller) expire(key string, p *pending) {
	c.mu.Lock()
	current, ok := c.pending[key]
	if !ok || current != p || c.stopped {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	query, fire := p.query, p.fire
	c.mu.Unlock()

	fire(query)
}

// Cancel discards any pending call for a key.
func (c *Controller) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[key]; ok {
		p.timer.Stop()
		delete(c.pending, key)
	}
}

// Pending returns the number of keys with a call waiting on its window.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Stop cancels every pending call and rejects further ones.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for key, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, key)
	}
}
