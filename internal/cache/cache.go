// Package cache holds computed report results between writes.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Cache stores JSON-serializable values under string keys.
type Cache interface {
	// Get decodes the value under key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

type memoryItem struct {
	value      []byte
	expiration int64
}

// Memory is an in-process cache with a single TTL.
type Memory struct {
	items map[string]memoryItem
	mu    sync.RWMutex
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

// NewMemory creates a cache whose entries live for ttl. Expired entries are
// swept every sweep interval; a zero sweep disables the janitor.
func NewMemory(ttl, sweep time.Duration) *Memory {
	c := &Memory{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	if sweep > 0 {
		go c.cleanupExpired(sweep)
	}
	return c
}

func (c *Memory) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()
	if !found || time.Now().UnixNano() > item.expiration {
		return false, nil
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Memory) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = memoryItem{
		value:      data,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	return nil
}

func (c *Memory) DeleteByPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

// Size returns the number of stored entries, expired or not.
func (c *Memory) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Memory) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *Memory) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now().UnixNano()
			for key, item := range c.items {
				if now > item.expiration {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// ReportsPrefix is the key prefix for every cached report. Writes that change
// products or sales drop everything under it.
const ReportsPrefix = "reports:"

// reportGen counts report invalidations in this process. A report built under
// an older generation may predate a write and is not stored.
var reportGen struct {
	mu sync.RWMutex
	n  uint64
}

// ReportsGeneration returns the current report generation. Read it before
// building a report and hand it to StoreReport.
func ReportsGeneration() uint64 {
	reportGen.mu.RLock()
	defer reportGen.mu.RUnlock()
	return reportGen.n
}

// InvalidateReports drops cached reports and starts a new generation,
// tolerating a nil cache.
func InvalidateReports(ctx context.Context, c Cache) error {
	reportGen.mu.Lock()
	defer reportGen.mu.Unlock()
	reportGen.n++
	if c == nil {
		return nil
	}
	return c.DeleteByPrefix(ctx, ReportsPrefix)
}

// StoreReport caches value under key unless reports were invalidated since gen
// was read.
func StoreReport(ctx context.Context, c Cache, gen uint64, key string, value interface{}) error {
	reportGen.mu.RLock()
	defer reportGen.mu.RUnlock()
	if reportGen.n != gen {
		return nil
	}
	return c.Set(ctx, key, value)
}
