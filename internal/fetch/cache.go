package fetch

import (
	"container/list"
	"sync"
)

// manifestCacheCapacity bounds the number of manifest bodies kept in
// memory.
const manifestCacheCapacity = 100

// manifestCache is a fixed-capacity LRU keyed by manifest URL. The
// standard library has no generic LRU, so container/list plus a map is
// the idiomatic construction; wrapped here since no caller needs
// anything but get/put.
type manifestCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key  string
	body []byte
}

func newManifestCache(capacity int) *manifestCache {
	return &manifestCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *manifestCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).body, true
}

func (c *manifestCache) put(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).body = body
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{key: key, body: body})
	c.entries[key] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}
