package recurrence

import (
	"crypto/sha256"
	"slices"
	"sync"
	"time"
)

// CacheConfig holds configuration for the recurrence cache
type CacheConfig struct {
	TTL             time.Duration // Lifetime of an entry
	MaxEntries      int           // Least recently used entries are evicted past this size
	CleanupInterval time.Duration // Period of the background sweep of expired entries
}

// DefaultCacheConfig provides sensible defaults for recurrence caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// CacheStats provides information about cache usage
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}

// cacheKey is the sha256 of an engine call: operation, spec, dates (with zone) and flag
type cacheKey [sha256.Size]byte

type cacheEntry struct {
	value    any // mo.Option[time.Time] for "next", bool for "match"
	expires  time.Time
	lastUsed time.Time
}

// RecurrenceCache memoizes engine results. Engine calls are pure, so an entry is never
// stale; TTL and MaxEntries only bound memory.
type RecurrenceCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	config  CacheConfig

	done     chan struct{}
	stopOnce sync.Once
}

// NewRecurrenceCache creates a cache and starts its background sweep. Call Close to stop it.
func NewRecurrenceCache(config CacheConfig) *RecurrenceCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}

	c := &RecurrenceCache{
		entries: make(map[cacheKey]*cacheEntry),
		config:  config,
		done:    make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

func keyOf(operation, spec string, dates []time.Time, flag bool) cacheKey {
	h := sha256.New()
	h.Write([]byte(operation))
	h.Write([]byte{0})
	h.Write([]byte(spec))
	for _, d := range dates {
		h.Write([]byte{0})
		h.Write([]byte(d.Format(time.RFC3339Nano)))
		h.Write([]byte(d.Location().String()))
	}
	if flag {
		h.Write([]byte{1})
	}

	var k cacheKey
	h.Sum(k[:0])
	return k
}

// Get returns the value stored for the call, if present and not expired
func (c *RecurrenceCache) Get(operation, spec string, dates []time.Time, flag bool) (any, bool) {
	k := keyOf(operation, spec, dates, flag)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if now.After(e.expires) {
		delete(c.entries, k)
		return nil, false
	}
	e.lastUsed = now
	return e.value, true
}

// Set stores the value of a call, evicting the least recently used entries when full
func (c *RecurrenceCache) Set(operation, spec string, dates []time.Time, flag bool, value any) {
	k := keyOf(operation, spec, dates, flag)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = &cacheEntry{value: value, expires: now.Add(c.config.TTL), lastUsed: now}
	if len(c.entries) > c.config.MaxEntries {
		c.dropExpiredLocked(now)
		c.evictLocked()
	}
}

func (c *RecurrenceCache) dropExpiredLocked(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
}

// evictLocked trims the cache to MaxEntries, oldest use first
func (c *RecurrenceCache) evictLocked() {
	excess := len(c.entries) - c.config.MaxEntries
	if excess <= 0 {
		return
	}

	keys := make([]cacheKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b cacheKey) int {
		return c.entries[a].lastUsed.Compare(c.entries[b].lastUsed)
	})
	for _, k := range keys[:excess] {
		delete(c.entries, k)
	}
}

func (c *RecurrenceCache) sweepLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			c.dropExpiredLocked(now)
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// Close stops the background sweep and empties the cache. Safe to call more than once.
func (c *RecurrenceCache) Close() {
	c.stopOnce.Do(func() { close(c.done) })

	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Stats returns cache statistics
func (c *RecurrenceCache) Stats() CacheStats {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{TotalEntries: len(c.entries)}
	for _, e := range c.entries {
		if now.After(e.expires) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}
