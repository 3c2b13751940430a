// internal/advisor/cache.go
package advisor

import (
	"time"

	"evaldash/internal/models"
)

type cacheEntry struct {
	text      string
	createdAt time.Time
	expiresAt time.Time
}

// suggestionCache is a per-session TTL cache of generated texts. It is not
// safe for concurrent use on its own; the owning session serializes access.
type suggestionCache struct {
	entries map[string]cacheEntry
}

func newSuggestionCache() *suggestionCache {
	return &suggestionCache{entries: make(map[string]cacheEntry)}
}

// sweep removes entries whose expiry has passed. Called lazily before lookup.
func (c *suggestionCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}
}

func (c *suggestionCache) lookup(key string, now time.Time) (string, bool) {
	entry, ok := c.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		return "", false
	}
	return entry.text, true
}

func (c *suggestionCache) put(key, text string, ttl time.Duration, now time.Time) {
	c.entries[key] = cacheEntry{
		text:      text,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

// stats counts entries against now without evicting anything.
func (c *suggestionCache) stats(now time.Time) models.CacheStats {
	stats := models.CacheStats{Total: len(c.entries)}
	for _, entry := range c.entries {
		if entry.expiresAt.After(now) {
			stats.Valid++
		} else {
			stats.Expired++
		}
	}
	return stats
}

func (c *suggestionCache) clear() {
	c.entries = make(map[string]cacheEntry)
}
