package cache

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

type memoryEntry struct {
	entry     entities.APICache
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. Expired entries are hidden from Get
// and removed by DeleteExpired.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	logger  logger.Logger
	now     func() time.Time
}

func NewMemoryCache(log logger.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*memoryEntry),
		logger:  logger.Component(log, "memory_cache"),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (entities.APICacheEntity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.entries[key]
	if !ok || !c.now().Before(item.expiresAt) {
		return nil, nil
	}

	item.entry.IncrementHitCount()
	item.entry.LastAccessedAt = c.now()

	entry := item.entry
	entry.Data = append([]byte(nil), item.entry.Data...)
	return &entry, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, data entities.APICacheEntity, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("invalid ttl %s for key %s", ttl, key)
	}

	entry := entities.APICache{
		ID:             data.GetID(),
		CacheKey:       key,
		CacheType:      data.GetCacheType(),
		Data:           append([]byte(nil), data.GetData()...),
		ContentType:    data.GetContentType(),
		ExpiresAt:      data.GetExpiresAt(),
		HitCount:       data.GetHitCount(),
		CreatedAt:      data.GetCreatedAt(),
		LastAccessedAt: data.GetLastAccessedAt(),
	}

	c.mu.Lock()
	c.entries[key] = &memoryEntry{entry: entry, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeleteByPattern accepts the glob syntax of path.Match, which covers the
// Redis patterns this service uses.
func (c *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			deleted++
		}
	}

	c.logger.Debugf("Deleted %d keys matching %s", deleted, pattern)
	return nil
}

func (c *MemoryCache) DeleteExpired(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.entries {
		if !now.Before(item.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) HealthCheck(_ context.Context) error {
	return nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]*memoryEntry)
	c.mu.Unlock()
	return nil
}
