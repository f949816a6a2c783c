package recurrence

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
)

func TestRecurrenceCache_BasicOperations(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	dates := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	spec := "RRULE:FREQ=DAILY;COUNT=5"

	result, found := cache.Get("next", spec, dates, false)
	if found {
		t.Error("Expected cache miss, got hit")
	}
	if result != nil {
		t.Error("Expected nil result on cache miss")
	}

	want := mo.Some(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	cache.Set("next", spec, dates, false, want)

	result, found = cache.Get("next", spec, dates, false)
	if !found {
		t.Error("Expected cache hit, got miss")
	}
	if result.(mo.Option[time.Time]) != want {
		t.Errorf("Expected %v, got %v", want, result)
	}
}

func TestRecurrenceCache_TTLExpiration(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             100 * time.Millisecond,
		MaxEntries:      100,
		CleanupInterval: 50 * time.Millisecond,
	})
	defer cache.Close()

	dates := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	cache.Set("match", "RRULE:FREQ=DAILY", dates, false, true)

	result, found := cache.Get("match", "RRULE:FREQ=DAILY", dates, false)
	if !found || result != true {
		t.Error("Expected cache hit immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	_, found = cache.Get("match", "RRULE:FREQ=DAILY", dates, false)
	if found {
		t.Error("Expected cache miss after TTL expiration")
	}
}

func TestRecurrenceCache_DifferentKeys(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	defer cache.Close()

	utc := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	zoned := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.FixedZone("Etc/Zero", 0))}

	cache.Set("match", "RRULE:FREQ=DAILY", utc, false, true)
	cache.Set("match", "RRULE:FREQ=WEEKLY", utc, false, false)
	cache.Set("match", "RRULE:FREQ=DAILY", utc, true, false)

	if r, ok := cache.Get("match", "RRULE:FREQ=DAILY", utc, false); !ok || r != true {
		t.Error("Expected daily entry to be true")
	}
	if r, ok := cache.Get("match", "RRULE:FREQ=WEEKLY", utc, false); !ok || r != false {
		t.Error("Expected weekly entry to be false")
	}
	if r, ok := cache.Get("match", "RRULE:FREQ=DAILY", utc, true); !ok || r != false {
		t.Error("Expected flagged entry to be false")
	}
	if _, ok := cache.Get("next", "RRULE:FREQ=DAILY", utc, false); ok {
		t.Error("Expected a different operation to miss")
	}
	if _, ok := cache.Get("match", "RRULE:FREQ=DAILY", zoned, false); ok {
		t.Error("Expected a different location to miss")
	}
}

func TestRecurrenceCache_Stats(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	defer cache.Close()

	stats := cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("Expected 0 initial entries, got %d", stats.TotalEntries)
	}

	dates := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	for i := 0; i < 5; i++ {
		cache.Set("next", fmt.Sprintf("RRULE:FREQ=DAILY;COUNT=%d", i+1), dates, false, true)
	}

	stats = cache.Stats()
	if stats.TotalEntries != 5 {
		t.Errorf("Expected 5 entries, got %d", stats.TotalEntries)
	}
	if stats.ActiveEntries != 5 {
		t.Errorf("Expected 5 active entries, got %d", stats.ActiveEntries)
	}
}

func TestRecurrenceCache_MaxEntriesEviction(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      3,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	dates := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	for i := 0; i < 3; i++ {
		cache.Set("next", fmt.Sprintf("RRULE:FREQ=DAILY;COUNT=%d", i+1), dates, false, true)
		time.Sleep(2 * time.Millisecond)
	}

	cache.Set("next", "RRULE:FREQ=WEEKLY;COUNT=1", dates, false, false)

	if stats := cache.Stats(); stats.TotalEntries != 3 {
		t.Errorf("Expected 3 entries after eviction, got %d", stats.TotalEntries)
	}
	if result, found := cache.Get("next", "RRULE:FREQ=WEEKLY;COUNT=1", dates, false); !found || result != false {
		t.Error("Expected newest entry to be present after eviction")
	}
	if _, found := cache.Get("next", "RRULE:FREQ=DAILY;COUNT=1", dates, false); found {
		t.Error("Expected oldest entry to be evicted")
	}
}

func TestRecurrenceCache_ConcurrentAccess(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	const numGoroutines = 10
	const operationsPerGoroutine = 100
	dates := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < operationsPerGoroutine; j++ {
				spec := fmt.Sprintf("RRULE:FREQ=DAILY;COUNT=%d", goroutineID*operationsPerGoroutine+j+1)
				if j%2 == 0 {
					cache.Set("next", spec, dates, false, true)
				} else {
					cache.Get("next", spec, dates, false)
				}
			}
		}(i)
	}
	wg.Wait()

	cache.Set("next", "RRULE:FREQ=DAILY;COUNT=999", dates, false, true)
	if result, found := cache.Get("next", "RRULE:FREQ=DAILY;COUNT=999", dates, false); !found || result != true {
		t.Error("Cache should still be functional after concurrent access")
	}
}

func TestRecurrenceCache_CloseTwice(t *testing.T) {
	cache := NewRecurrenceCache(DefaultCacheConfig)
	cache.Close()
	cache.Close()

	if stats := cache.Stats(); stats.TotalEntries != 0 {
		t.Errorf("Expected empty cache after close, got %d entries", stats.TotalEntries)
	}
}

func TestRecurrenceCache_GetRefreshesRecency(t *testing.T) {
	cache := NewRecurrenceCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      2,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Close()

	dates := []time.Time{time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	cache.Set("match", "RRULE:FREQ=DAILY", dates, false, true)
	time.Sleep(2 * time.Millisecond)
	cache.Set("match", "RRULE:FREQ=WEEKLY", dates, false, true)
	time.Sleep(2 * time.Millisecond)

	// Touching the older entry makes WEEKLY the eviction candidate
	if _, ok := cache.Get("match", "RRULE:FREQ=DAILY", dates, false); !ok {
		t.Fatal("Expected daily entry to be present")
	}
	time.Sleep(2 * time.Millisecond)
	cache.Set("match", "RRULE:FREQ=MONTHLY", dates, false, true)

	if _, ok := cache.Get("match", "RRULE:FREQ=DAILY", dates, false); !ok {
		t.Error("Expected recently read entry to survive eviction")
	}
	if _, ok := cache.Get("match", "RRULE:FREQ=WEEKLY", dates, false); ok {
		t.Error("Expected least recently used entry to be evicted")
	}
}
