package sim

import "fmt"

// DefaultCacheSize is the per-relay cache bound used when none is configured.
const DefaultCacheSize = 4

// cacheEntry pairs a stored value with its age counter.
type cacheEntry[V any] struct {
	age   int
	value V
}

// Cache is a bounded, recency-ordered key/value store.
//
// Every Get or Put ages all entries it does not touch by one and resets the
// touched entry to zero. A Get miss still ages every entry. When a Put pushes
// the size over the bound, every entry sharing the maximum age is dropped at
// once, so a tie evicts the whole stale cohort rather than a single victim.
//
// Not safe for concurrent use.
type Cache[K comparable, V any] struct {
	maxSize int
	entries map[K]*cacheEntry[V]
}

// NewCache creates an empty cache holding at most maxSize entries.
// Panics if maxSize < 1.
func NewCache[K comparable, V any](maxSize int) *Cache[K, V] {
	if maxSize < 1 {
		panic(fmt.Sprintf("NewCache: maxSize must be >= 1, got %d", maxSize))
	}
	return &Cache[K, V]{
		maxSize: maxSize,
		entries: make(map[K]*cacheEntry[V], maxSize+1),
	}
}

// Get returns the value stored under key. On a hit the entry's age resets to
// zero and all others age by one; on a miss all entries age by one.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.entries[key]
	c.ageExcept(key)
	if !ok {
		var zero V
		return zero, false
	}
	e.age = 0
	return e.value, true
}

// Put inserts or overwrites key with age zero, ages all other entries, then
// prunes the maximum-age cohort if the bound is exceeded.
func (c *Cache[K, V]) Put(key K, value V) {
	c.ageExcept(key)
	c.entries[key] = &cacheEntry[V]{age: 0, value: value}
	if len(c.entries) > c.maxSize {
		c.evictOldest()
	}
}

// Age reports the age counter of key without touching any entry.
func (c *Cache[K, V]) Age(key K) (int, bool) {
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return e.age, true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	return len(c.entries)
}

// MaxSize returns the configured bound.
func (c *Cache[K, V]) MaxSize() int {
	return c.maxSize
}

func (c *Cache[K, V]) ageExcept(key K) {
	for k, e := range c.entries {
		if k != key {
			e.age++
		}
	}
}

// evictOldest drops every entry whose age equals the current maximum.
func (c *Cache[K, V]) evictOldest() {
	maxAge := -1
	for _, e := range c.entries {
		if e.age > maxAge {
			maxAge = e.age
		}
	}
	for k, e := range c.entries {
		if e.age == maxAge {
			delete(c.entries, k)
		}
	}
}
