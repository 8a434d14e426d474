// Package checkcache memoizes availability determinations for a few seconds
// so that overlapping callers (the scheduled cycle, registration, check-now)
// don't hit the same product page twice in a row. Losing the cache never
// changes outcomes, only the number of provider calls.
package checkcache

import (
	"sync"
	"time"

	"github.com/fiffu/stockwatch/lib/models"
)

// Key identifies one cache slot. Availability is scoped per store, so two
// stores watching the same locator never share an entry.
type Key struct {
	Locator string
	StoreID string
}

type entry struct {
	det        models.Determination
	observedAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]entry
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]entry),
	}
}

// Lookup returns the cached determination if one exists and is younger than
// the TTL. Age is checked here independently of EvictExpired, so a stale entry
// that outlived an eviction pass is still never served.
func (c *Cache) Lookup(key Key) (models.Determination, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return models.Determination{}, false
	}
	if time.Now().UTC().Sub(e.observedAt) >= c.ttl {
		return models.Determination{}, false
	}
	return e.det, true
}

// Store records a determination observed at the given time. Last write wins;
// concurrent callers for the same key are computing the same thing.
func (c *Cache) Store(key Key, det models.Determination, observedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{det: det, observedAt: observedAt}
}

// EvictExpired drops entries older than the TTL and reports how many went.
func (c *Cache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, e := range c.entries {
		if now.Sub(e.observedAt) >= c.ttl {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
