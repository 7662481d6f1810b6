package embedding

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheKey struct {
	model string
	text  string
}

// Cache is a bounded (model, text) → vector cache. Entries are evicted
// least-recently-used when full and expire a fixed TTL after insertion;
// reads do not extend the TTL. Vectors are copied in and out.
type Cache struct {
	lru *expirable.LRU[cacheKey, []float32]
}

// NewCache creates a cache holding at most size entries for ttl each.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[cacheKey, []float32](size, nil, ttl)}
}

// Get returns a copy of the cached vector.
func (c *Cache) Get(model, text string) ([]float32, bool) {
	v, ok := c.lru.Get(cacheKey{model: model, text: text})
	if !ok {
		return nil, false
	}
	return cloneVector(v), true
}

// Add stores a copy of vec, resetting the entry's TTL.
func (c *Cache) Add(model, text string, vec []float32) {
	c.lru.Add(cacheKey{model: model, text: text}, cloneVector(vec))
}

// Len returns the number of entries, including expired ones not yet removed.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge removes every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
