package ledger

import "sync"

// Cache is the in-memory view of one scope's ledger for the duration of a
// scan run. Paths and hashes are guarded by separate mutexes; no method
// holds both.
type Cache struct {
	pathMu sync.RWMutex
	paths  map[string]struct{}

	hashMu sync.Mutex
	hashes map[string]struct{}
}

// NewCache creates a cache seeded with known paths and hashes. Nil maps
// are allowed.
func NewCache(paths, hashes map[string]struct{}) *Cache {
	if paths == nil {
		paths = make(map[string]struct{})
	}
	if hashes == nil {
		hashes = make(map[string]struct{})
	}
	return &Cache{paths: paths, hashes: hashes}
}

// SeenPath reports whether path was already recorded.
func (c *Cache) SeenPath(path string) bool {
	c.pathMu.RLock()
	defer c.pathMu.RUnlock()
	_, ok := c.paths[path]
	return ok
}

// AddPath records path as processed.
func (c *Cache) AddPath(path string) {
	c.pathMu.Lock()
	defer c.pathMu.Unlock()
	c.paths[path] = struct{}{}
}

// Known reports whether hash is recorded or claimed.
func (c *Cache) Known(hash string) bool {
	c.hashMu.Lock()
	defer c.hashMu.Unlock()
	_, ok := c.hashes[hash]
	return ok
}

// Claim atomically marks hash as taken. It returns false when the hash is
// already known or claimed by another worker.
func (c *Cache) Claim(hash string) bool {
	c.hashMu.Lock()
	defer c.hashMu.Unlock()
	if _, ok := c.hashes[hash]; ok {
		return false
	}
	c.hashes[hash] = struct{}{}
	return true
}

// Release undoes a Claim whose commit failed.
func (c *Cache) Release(hash string) {
	c.hashMu.Lock()
	defer c.hashMu.Unlock()
	delete(c.hashes, hash)
}

// Len returns the number of known paths and hashes.
func (c *Cache) Len() (paths, hashes int) {
	c.pathMu.RLock()
	paths = len(c.paths)
	c.pathMu.RUnlock()

	c.hashMu.Lock()
	hashes = len(c.hashes)
	c.hashMu.Unlock()
	return paths, hashes
}
