package capsule

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/theapemachine/animus/pkg/errors"
)

const defaultMaxEntries = 32

// Source is the boundary the cache fetches capsules through on a miss.
type Source interface {
	Fetch(ctx context.Context, constructID string) (*Capsule, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, constructID string) (*Capsule, error)

func (f SourceFunc) Fetch(ctx context.Context, constructID string) (*Capsule, error) {
	return f(ctx, constructID)
}

type entry struct {
	constructID string
	capsule     *Capsule
	loadedAt    time.Time
	accessCount int64
	elem        *list.Element
}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits        int64         `json:"hits"`
	Misses      int64         `json:"misses"`
	TotalLoads  int64         `json:"total_loads"`
	AvgLoadTime time.Duration `json:"avg_load_time"`
	Size        int           `json:"size"`
	MaxSize     int           `json:"max_size"`
}

/*
Cache is an in-process LRU cache of construct capsules with single-flight
loading. Eviction is strictly least-recently-used by access time, not load
time. Concurrent loads of the same construct collapse into one fetch; a
fetch failure reaches every waiter of that flight and leaves nothing behind,
so the next load retries from scratch.
*/
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front = most recently accessed
	maxSize int

	source  Source
	timeout time.Duration
	retry   *errors.RetryConfig
	flight  singleflight.Group

	hits       int64
	misses     int64
	totalLoads int64
	totalLoad  time.Duration
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithFetchTimeout bounds each underlying fetch.
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *Cache) { c.timeout = d }
}

// WithRetry sets the retry budget spent before a fetch counts as failed.
func WithRetry(cfg *errors.RetryConfig) CacheOption {
	return func(c *Cache) { c.retry = cfg }
}

// NewCache creates a capsule cache over the given source. maxSize <= 0
// selects the default of 32 entries.
func NewCache(source Source, maxSize int, options ...CacheOption) *Cache {
	if maxSize <= 0 {
		maxSize = defaultMaxEntries
	}

	cache := &Cache{
		entries: make(map[string]*entry),
		lru:     list.New(),
		maxSize: maxSize,
		source:  source,
		timeout: 10 * time.Second,
	}

	for _, option := range options {
		option(cache)
	}

	return cache
}

/*
Load returns the capsule for a construct, fetching it through the source on
a miss. All concurrent callers for the same construct during an in-flight
load await the same fetch. A failed fetch is reported to every waiter as a
CacheLoadError and is not cached.
*/
func (c *Cache) Load(ctx context.Context, constructID string) (*Capsule, error) {
	c.mu.Lock()
	if e, ok := c.entries[constructID]; ok {
		c.hits++
		e.accessCount++
		c.lru.MoveToFront(e.elem)
		capsule := e.capsule
		c.mu.Unlock()
		return capsule, nil
	}
	c.misses++
	c.mu.Unlock()

	v, err, _ := c.flight.Do(constructID, func() (any, error) {
		started := time.Now()

		capsule, err := c.fetch(ctx, constructID)
		if err != nil {
			return nil, errors.NewCacheLoad(constructID, err)
		}

		c.insert(constructID, capsule, time.Since(started))
		return capsule, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Capsule), nil
}

func (c *Cache) fetch(ctx context.Context, constructID string) (*Capsule, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.retry == nil {
		return c.source.Fetch(ctx, constructID)
	}

	var capsule *Capsule
	err := errors.RetryWithBackoff(c.retry, func() error {
		var ferr error
		capsule, ferr = c.source.Fetch(ctx, constructID)
		return ferr
	})
	return capsule, err
}

func (c *Cache) insert(constructID string, capsule *Capsule, loadTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalLoads++
	c.totalLoad += loadTime

	// A racing flight may have inserted between our miss and now; refresh
	// in place rather than double-counting the entry.
	if e, ok := c.entries[constructID]; ok {
		e.capsule = capsule
		e.loadedAt = time.Now()
		c.lru.MoveToFront(e.elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	e := &entry{
		constructID: constructID,
		capsule:     capsule,
		loadedAt:    time.Now(),
	}
	e.elem = c.lru.PushFront(e)
	c.entries[constructID] = e
}

// evictOldest removes the least-recently-accessed entry. Caller holds the lock.
func (c *Cache) evictOldest() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	victim := back.Value.(*entry)
	c.lru.Remove(back)
	delete(c.entries, victim.constructID)
}

/*
Clear atomically empties the cache. Per-entry state (access counts, load
times) dies with the entries; the global hit/miss/load counters survive for
observability and reset only via ResetStats or process restart.
*/
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
}

// ResetStats zeroes the global counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses, c.totalLoads, c.totalLoad = 0, 0, 0, 0
}

// Stats returns a snapshot of the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		TotalLoads: c.totalLoads,
		Size:       len(c.entries),
		MaxSize:    c.maxSize,
	}
	if c.totalLoads > 0 {
		stats.AvgLoadTime = c.totalLoad / time.Duration(c.totalLoads)
	}
	return stats
}
