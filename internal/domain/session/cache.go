package session

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TagRefreshToken tags every cached refresh response.
const TagRefreshToken = "refresh-token"

type cacheEntry struct {
	value   grant
	tag     string
	expires time.Time
}

// responseCache holds successful refresh responses per token for a bounded
// window and collapses concurrent fetches of the same key.
type responseCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

// do returns the cached value for key or runs fetch once for all concurrent
// callers. Only successful values are stored.
func (c *responseCache) do(key, tag string, fetch func() (grant, error)) (grant, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := fetch()
		if err != nil {
			return grant{}, err
		}
		c.put(key, tag, v)
		return v, nil
	})
	return v.(grant), err
}

func (c *responseCache) get(key string) (grant, bool) {
	if c.ttl <= 0 {
		return grant{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return grant{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return grant{}, false
	}
	return e.value, true
}

func (c *responseCache) put(key, tag string, v grant) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{value: v, tag: tag, expires: now.Add(c.ttl)}
}

func (c *responseCache) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// invalidateTag drops every entry carrying tag.
func (c *responseCache) invalidateTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if e.tag == tag {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
