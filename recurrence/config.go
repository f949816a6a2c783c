package recurrence

import (
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// MaxMonthSteps bounds how many months the MONTHLY fast paths search past the
	// reference date before giving up. 240 months covers twenty years.
	MaxMonthSteps int

	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultEngineConfig keeps the engine pure: no cache, no background goroutine
var DefaultEngineConfig = EngineConfig{
	MaxMonthSteps: 240,
	CacheEnabled:  false,
}

// CachedEngineConfig memoizes results per (spec, date, flag) for hot callers such as calendar views
var CachedEngineConfig = EngineConfig{
	MaxMonthSteps: 240,
	CacheEnabled:  true,
	CacheConfig:   DefaultCacheConfig,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	MaxMonthSteps: 240,
	CacheEnabled:  true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 2 * time.Minute,
	},
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...Option) *Engine {
	if config.MaxMonthSteps <= 0 {
		config.MaxMonthSteps = DefaultEngineConfig.MaxMonthSteps
	}

	e := &Engine{
		config: config,
		logger: discardLogger(),
	}
	if config.CacheEnabled {
		e.cache = NewRecurrenceCache(config.CacheConfig)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
