package postcodes

import (
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/crimewatch-service/internal/domain"
	"github.com/couchcryptid/crimewatch-service/internal/observability"
)

// CachedResolver wraps a LocationResolver with an in-memory LRU cache keyed by
// normalised postcode.
type CachedResolver struct {
	inner   domain.LocationResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner domain.LocationResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) ResolveCoordinates(ctx context.Context, postalCode string) (domain.Coordinate, error) {
	key := cacheKey(postalCode)
	if coord, ok := c.cache.get(key); ok {
		c.record("hit")
		return coord, nil
	}
	c.record("miss")

	coord, err := c.inner.ResolveCoordinates(ctx, postalCode)
	if err != nil {
		return coord, err
	}
	c.cache.put(key, coord)
	return coord, nil
}

func (c *CachedResolver) record(result string) {
	if c.metrics != nil {
		c.metrics.PostcodeCache.WithLabelValues(result).Inc()
	}
}

// cacheKey folds case and spacing so "sw1a1aa" and "SW1A 1AA" share an entry.
func cacheKey(postalCode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postalCode), ""))
}

// lruCache is a simple thread-safe LRU cache of resolved coordinates.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Coordinate
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Coordinate{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	for len(c.entries) > c.maxEntries && c.tail != nil {
		delete(c.entries, c.tail.key)
		c.unlink(c.tail)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}
