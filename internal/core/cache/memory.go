package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-kiln-monitor/internal/util"
)

// MemoryCacheEntry is one cached value with its bookkeeping times.
type MemoryCacheEntry[V any] struct {
	Value        V
	StoredAt     time.Time
	LastAccessed time.Time
}

// Stats counts lookups since creation.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
}

// MemoryCache is a TTL cache keyed by string.
//
// Clear is two-phase: after Clear, fresh lookups miss and new values go to a
// shadow buffer, while the previous values stay reachable through GetStale
// until CommitClear swaps the buffers in.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*MemoryCacheEntry[V]

	pendingClear  bool
	shadowEntries map[string]*MemoryCacheEntry[V]

	hits, misses int
}

// NewMemoryCache creates a cache whose entries expire after ttl. A
// non-positive ttl disables expiry.
func NewMemoryCache[V any](ttl time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*MemoryCacheEntry[V]),
	}
}

// SetClock replaces the time source, for tests.
func (mc *MemoryCache[V]) SetClock(now func() time.Time) {
	mc.mu.Lock()
	mc.now = now
	mc.mu.Unlock()
}

func (mc *MemoryCache[V]) Set(key string, value V) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	entry := &MemoryCacheEntry[V]{Value: value, StoredAt: now, LastAccessed: now}
	if mc.pendingClear && mc.shadowEntries != nil {
		mc.shadowEntries[key] = entry
	} else {
		mc.entries[key] = entry
	}
}

// Get returns a value that has not expired.
func (mc *MemoryCache[V]) Get(key string) (V, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	src := mc.entries
	if mc.pendingClear && mc.shadowEntries != nil {
		src = mc.shadowEntries
	}
	entry, ok := src[key]
	if !ok || mc.expired(entry) {
		mc.misses++
		var zero V
		return zero, false
	}
	entry.LastAccessed = mc.now()
	mc.hits++
	return entry.Value, true
}

// GetStale returns the last value stored under key regardless of age,
// including values awaiting a committed clear.
func (mc *MemoryCache[V]) GetStale(key string) (V, time.Time, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if mc.pendingClear && mc.shadowEntries != nil {
		if entry, ok := mc.shadowEntries[key]; ok {
			return entry.Value, entry.StoredAt, true
		}
	}
	if entry, ok := mc.entries[key]; ok {
		return entry.Value, entry.StoredAt, true
	}
	var zero V
	return zero, time.Time{}, false
}

func (mc *MemoryCache[V]) expired(entry *MemoryCacheEntry[V]) bool {
	return mc.ttl > 0 && mc.now().Sub(entry.StoredAt) > mc.ttl
}

// DeletePrefix drops every key starting with prefix and returns the count.
func (mc *MemoryCache[V]) DeletePrefix(prefix string) int {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	n := 0
	for _, m := range []map[string]*MemoryCacheEntry[V]{mc.entries, mc.shadowEntries} {
		for key := range m {
			if strings.HasPrefix(key, prefix) {
				delete(m, key)
				n++
			}
		}
	}
	return n
}

func (mc *MemoryCache[V]) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.pendingClear = true
	mc.shadowEntries = make(map[string]*MemoryCacheEntry[V])
	util.LogInfo("MemoryCache: marked for pending clear", util.F("entries", len(mc.entries)))
}

// CommitClear performs the actual cache clear after new data is loaded
func (mc *MemoryCache[V]) CommitClear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.pendingClear && mc.shadowEntries != nil {
		mc.entries = mc.shadowEntries
		mc.shadowEntries = nil
		mc.pendingClear = false
		util.LogInfo("MemoryCache: committed clear", util.F("entries", len(mc.entries)))
	}
}

// CancelClear cancels a pending clear operation
func (mc *MemoryCache[V]) CancelClear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.pendingClear = false
	mc.shadowEntries = nil
	util.LogInfo("MemoryCache: cancelled pending clear")
}

func (mc *MemoryCache[V]) PendingClear() bool {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.pendingClear
}

func (mc *MemoryCache[V]) Stats() Stats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return Stats{Entries: len(mc.entries), Hits: mc.hits, Misses: mc.misses}
}
