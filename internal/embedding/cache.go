// File path: internal/embedding/cache.go
package embedding

import (
	"container/list"
	"sync"
	"time"
)

type cacheEntry struct {
	key       string
	vector    []float32
	expiresAt time.Time
}

// vectorCache is a bounded LRU with per-entry expiry, sized for hot query
// text within a single process.
type vectorCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	ll       *list.List
	now      func() time.Time
}

func newVectorCache(size int, ttl time.Duration) *vectorCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &vectorCache{
		capacity: size,
		ttl:      ttl,
		items:    make(map[string]*list.Element, size),
		ll:       list.New(),
		now:      time.Now,
	}
}

func (c *vectorCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.ll.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(elem)
	return entry.vector, true
}

func (c *vectorCache) Set(key string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{key: key, vector: vector, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.ll.MoveToFront(elem)
		return
	}
	elem := c.ll.PushFront(entry)
	c.items[key] = elem
	if c.ll.Len() > c.capacity {
		tail := c.ll.Back()
		if tail != nil {
			c.ll.Remove(tail)
			if evicted, ok := tail.Value.(cacheEntry); ok {
				delete(c.items, evicted.key)
			}
		}
	}
}

func (c *vectorCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.ll = list.New()
}
