package indicator

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"factorflow/config"
)

// DefaultCacheTTL is the default TTL for cached indicator results.
const DefaultCacheTTL = time.Hour

// fingerprintRows caps how many leading rows feed the data hash.
const fingerprintRows = 100

// Cache provides TTL-based caching of computed indicator columns so
// repeated pipeline runs over the same bars skip the recomputation.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]*cacheEntry
	maxSize int
	ttl     time.Duration
}

type cacheEntry struct {
	names      []string
	cols       map[string][]float32
	expiresAt  time.Time
	accessedAt time.Time
}

// NewCache creates a Cache holding at most maxSize entries. A TTL of 0
// effectively disables caching.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[uint64]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *Cache) get(key uint64) ([]column, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	entry.accessedAt = time.Now()

	cols := make([]column, 0, len(entry.names))
	for _, name := range entry.names {
		cols = append(cols, column{name: name, values: entry.cols[name]})
	}
	return cols, true
}

func (c *Cache) set(key uint64, cols []column) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{
		names:      make([]string, 0, len(cols)),
		cols:       make(map[string][]float32, len(cols)),
		expiresAt:  time.Now().Add(c.ttl),
		accessedAt: time.Now(),
	}
	for _, col := range cols {
		entry.names = append(entry.names, col.name)
		entry.cols[col.name] = col.values
	}
	c.entries[key] = entry

	if len(c.entries) > c.maxSize {
		c.evictOldest()
	}
}

// evictOldest removes the least recently accessed entry. Caller holds
// the write lock.
func (c *Cache) evictOldest() {
	var oldestKey uint64
	var oldestTime time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.accessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.accessedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Invalidate clears all cached results.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*cacheEntry)
}

// Len returns the number of live cache entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// fingerprint derives a cache key from the frame's base columns, the
// requested kinds, and the parameter set. Only the leading rows feed
// the data hash; the row count disambiguates longer histories sharing
// a prefix.
func fingerprint(f *Frame, kinds []Kind, cfg config.IndicatorConfig) uint64 {
	h := fnv.New64a()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(f.n))
	h.Write(buf[:])

	rows := f.n
	if rows > fingerprintRows {
		rows = fingerprintRows
	}
	for _, col := range [][]float64{f.open, f.high, f.low, f.close, f.volume} {
		for i := 0; i < rows; i++ {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(col[i]))
			h.Write(buf[:])
		}
	}

	for _, k := range kinds {
		h.Write([]byte(k.String()))
		h.Write([]byte{0})
	}
	fmt.Fprintf(h, "%+v", cfg)

	return h.Sum64()
}
