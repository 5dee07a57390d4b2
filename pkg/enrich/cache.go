package enrich

import (
	"container/list"
	"sync"
	"time"
)

const defaultCacheSize = 1024

type cacheEntry struct {
	key       string
	value     Result
	expiresAt time.Time
}

// resultCache is a bounded LRU keyed by client address. Entries expire
// after the TTL so stale geo data gets refreshed, and the size bound
// keeps one scan of the address space from growing the map forever.
type resultCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List
	capacity int
	ttl      time.Duration
}

func newResultCache(capacity int, ttl time.Duration) *resultCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &resultCache{
		entries:  map[string]*list.Element{},
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (c *resultCache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		return Result{}, false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

func (c *resultCache) Set(key string, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	elem := c.order.PushFront(&cacheEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.entries[key] = elem
	if c.order.Len() > c.capacity {
		tail := c.order.Back()
		if tail != nil {
			c.order.Remove(tail)
			delete(c.entries, tail.Value.(*cacheEntry).key)
		}
	}
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
