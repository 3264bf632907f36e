package compiler

import (
	"hash/maphash"
	"sync"
	"sync/atomic"

	"go.yaml.in/yaml/v4"
)

const shardCount = 32

// shardedStore is a string-keyed map split across independently locked
// shards so concurrent readers of different keys do not contend.
type shardedStore[V any] struct {
	seed   maphash.Seed
	shards [shardCount]struct {
		mu sync.RWMutex
		m  map[string]V
	}
}

func newShardedStore[V any]() *shardedStore[V] {
	s := &shardedStore[V]{seed: maphash.MakeSeed()}
	for i := range s.shards {
		s.shards[i].m = make(map[string]V)
	}
	return s
}

func (s *shardedStore[V]) shard(key string) int {
	return int(maphash.String(s.seed, key) % shardCount)
}

func (s *shardedStore[V]) get(key string) (V, bool) {
	sh := &s.shards[s.shard(key)]
	sh.mu.RLock()
	v, ok := sh.m[key]
	sh.mu.RUnlock()
	return v, ok
}

func (s *shardedStore[V]) put(key string, v V) {
	sh := &s.shards[s.shard(key)]
	sh.mu.Lock()
	sh.m[key] = v
	sh.mu.Unlock()
}

func (s *shardedStore[V]) remove(key string) {
	sh := &s.shards[s.shard(key)]
	sh.mu.Lock()
	delete(sh.m, key)
	sh.mu.Unlock()
}

func (s *shardedStore[V]) clear() {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		clear(sh.m)
		sh.mu.Unlock()
	}
}

func (s *shardedStore[V]) len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// Cache holds the raw bytes and parsed trees read by one or more Readers.
//
// A Cache is safe for concurrent use. Share one Cache between Readers to
// avoid fetching and parsing the same document twice; give each test its
// own Cache to keep them isolated. Entries live until they are removed or
// cleared explicitly.
//
// The parsed-tree cache is keyed by locator for whole documents and by the
// raw $ref string for resolved fragments. A nil tree stored under a $ref
// key records a fragment that could not be resolved.
type Cache struct {
	files *shardedStore[[]byte]
	infos *shardedStore[*yaml.Node]

	fileEnabled atomic.Bool
	infoEnabled atomic.Bool

	// refs maps a resolved locator to the $ref keys cached through it.
	refsMu sync.Mutex
	refs   map[string]map[string]struct{}
}

// NewCache returns an empty Cache with both caches enabled.
func NewCache() *Cache {
	c := &Cache{
		files: newShardedStore[[]byte](),
		infos: newShardedStore[*yaml.Node](),
		refs:  make(map[string]map[string]struct{}),
	}
	c.fileEnabled.Store(true)
	c.infoEnabled.Store(true)
	return c
}

// EnableFileCache turns on caching of fetched bytes.
func (c *Cache) EnableFileCache() { c.fileEnabled.Store(true) }

// DisableFileCache turns off caching of fetched bytes. Existing entries
// are kept but ignored until the cache is enabled again.
func (c *Cache) DisableFileCache() { c.fileEnabled.Store(false) }

// EnableInfoCache turns on caching of parsed trees.
func (c *Cache) EnableInfoCache() { c.infoEnabled.Store(true) }

// DisableInfoCache turns off caching of parsed trees.
func (c *Cache) DisableInfoCache() { c.infoEnabled.Store(false) }

// FileCacheEnabled reports whether fetched bytes are cached.
func (c *Cache) FileCacheEnabled() bool { return c.fileEnabled.Load() }

// InfoCacheEnabled reports whether parsed trees are cached.
func (c *Cache) InfoCacheEnabled() bool { return c.infoEnabled.Load() }

// RemoveFromFileCache drops the bytes cached for locator.
func (c *Cache) RemoveFromFileCache(locator string) {
	c.files.remove(locator)
}

// RemoveFromInfoCache drops the tree cached under key.
func (c *Cache) RemoveFromInfoCache(key string) {
	c.infos.remove(key)
}

// ClearFileCache drops all cached bytes.
func (c *Cache) ClearFileCache() {
	c.files.clear()
}

// ClearInfoCache drops all cached trees.
func (c *Cache) ClearInfoCache() {
	c.infos.clear()
	c.refsMu.Lock()
	clear(c.refs)
	c.refsMu.Unlock()
}

// ClearCaches drops everything.
func (c *Cache) ClearCaches() {
	c.ClearFileCache()
	c.ClearInfoCache()
}

// Invalidate drops the bytes and tree cached for locator together with
// every $ref fragment that was resolved through it.
func (c *Cache) Invalidate(locator string) {
	c.files.remove(locator)
	c.infos.remove(locator)
	c.refsMu.Lock()
	keys := c.refs[locator]
	delete(c.refs, locator)
	c.refsMu.Unlock()
	for key := range keys {
		c.infos.remove(key)
	}
}

// FileCacheLen returns the number of cached byte payloads.
func (c *Cache) FileCacheLen() int { return c.files.len() }

// InfoCacheLen returns the number of cached trees, including unresolved
// $ref markers.
func (c *Cache) InfoCacheLen() int { return c.infos.len() }

func (c *Cache) getFile(locator string) ([]byte, bool) {
	return c.files.get(locator)
}

func (c *Cache) putFile(locator string, data []byte) {
	c.files.put(locator, data)
}

func (c *Cache) getInfo(key string) (*yaml.Node, bool) {
	return c.infos.get(key)
}

func (c *Cache) putInfo(key string, node *yaml.Node) {
	c.infos.put(key, node)
}

// putRef caches a resolved fragment and remembers which locator it came
// from so Invalidate can find it.
func (c *Cache) putRef(ref, locator string, node *yaml.Node) {
	c.infos.put(ref, node)
	c.refsMu.Lock()
	keys, ok := c.refs[locator]
	if !ok {
		keys = make(map[string]struct{})
		c.refs[locator] = keys
	}
	keys[ref] = struct{}{}
	c.refsMu.Unlock()
}
