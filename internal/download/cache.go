package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"downloader/internal/models"
)

// Cache stores resolved results keyed by canonical page URL.
type Cache interface {
	Get(ctx context.Context, key string) (*models.DownloadResult, bool, error)
	Set(ctx context.Context, key string, result *models.DownloadResult) error
	Ping(ctx context.Context) error
	Close() error
}

// NewCache builds the cache selected by cfg. A disabled cache never hits.
func NewCache(cfg models.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nopCache{}, nil
	}
	switch cfg.Type {
	case models.CacheTypeMemory:
		return NewMemoryCache(cfg.Memory.MaxSize, cfg.TTL, cfg.Memory.CleanupInterval), nil
	case models.CacheTypeRedis:
		return NewRedisCache(cfg.Redis, cfg.TTL)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*models.DownloadResult, bool, error) {
	return nil, false, nil
}
func (nopCache) Set(context.Context, string, *models.DownloadResult) error { return nil }
func (nopCache) Ping(context.Context) error                               { return nil }
func (nopCache) Close() error                                             { return nil }

type cacheEntry struct {
	result    models.DownloadResult
	expiresAt time.Time
}

// MemoryCache is a size-bounded in-process cache. A background goroutine
// periodically drops expired entries; when full, the entry closest to expiry
// is evicted.
type MemoryCache struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*cacheEntry
	done    chan struct{}
	closed  bool
}

// NewMemoryCache creates a cache holding at most maxSize results for ttl each.
// A non-positive cleanupInterval disables the background sweep.
func NewMemoryCache(maxSize int, ttl, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanup(cleanupInterval)
	}
	return c
}

// Get returns a copy of the cached result.
func (c *MemoryCache) Get(_ context.Context, key string) (*models.DownloadResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	result := e.result
	return &result, true, nil
}

// Set stores a copy of result.
func (c *MemoryCache) Set(_ context.Context, key string, result *models.DownloadResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOneLocked()
	}
	c.entries[key] = &cacheEntry{
		result:    *result,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Ping implements Cache.
func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked removes the entry that expires first. Caller holds c.mu.
func (c *MemoryCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = e.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
