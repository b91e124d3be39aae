package cache

import (
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/Code-Hex/go-generics-cache/policy/lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheMetrics = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ordercheck_cache_lookups_total",
		Help: "Cache lookups by cache name and result",
	},
	[]string{"name", "result"},
)

// Cache is an LRU cache whose entries expire after ttl.
type Cache[K comparable, V any] struct {
	cache      *cache.Cache[K, V]
	metricName string
	ttl        time.Duration
}

// NewLRUCache creates a cache. A zero ttl keeps entries until they are evicted.
func NewLRUCache[K comparable, V any](size int, ttl time.Duration, metricName string) *Cache[K, V] {
	return &Cache[K, V]{
		cache:      cache.New(cache.AsLRU[K, V](lru.WithCapacity(size))),
		metricName: metricName,
		ttl:        ttl,
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		cacheMetrics.WithLabelValues(c.metricName, "hit").Inc()
		return val, ok
	}
	cacheMetrics.WithLabelValues(c.metricName, "miss").Inc()
	return val, ok
}

func (c *Cache[K, V]) Set(key K, val V) {
	if c.ttl > 0 {
		c.cache.Set(key, val, cache.WithExpiration(c.ttl))
		return
	}
	c.cache.Set(key, val)
}

func (c *Cache[K, V]) Delete(key K) {
	c.cache.Delete(key)
}

func (c *Cache[K, V]) Len() int {
	return len(c.cache.Keys())
}
