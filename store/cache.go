package store

import "sync"

// writeCache is the write-through cache: resolved physical path to the
// most recently written value. An entry is created the instant a write
// is issued — before the durable write begins — so a read issued after a
// write and before Flush always observes the written value, even while
// the durable write is still in flight or has transiently failed.
//
// Keys are fully resolved (branch-scoped) paths, so entries from
// different branches never collide. Entries are removed by delete and
// cleared in bulk only by an explicit Flush; there is no eviction, which
// is what makes the read-after-write invariant unconditional.
type writeCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newWriteCache() *writeCache {
	return &writeCache{entries: make(map[string][]byte)}
}

func (c *writeCache) get(resolved string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[resolved]
	return v, ok
}

func (c *writeCache) put(resolved string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[resolved] = value
}

func (c *writeCache) remove(resolved string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, resolved)
}

func (c *writeCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
}

func (c *writeCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
