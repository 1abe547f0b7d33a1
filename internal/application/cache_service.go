package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const viewKeyPrefix = "view:"

type CacheService struct {
	cache  ports.Cache
	ttl    time.Duration
	logger logger.Logger
}

func NewCacheService(cache ports.Cache, ttl time.Duration, log logger.Logger) *CacheService {
	return &CacheService{
		cache:  cache,
		ttl:    ttl,
		logger: logger.Component(log, "cache_service"),
	}
}

// GetView returns a cached view. Cache failures are logged and reported as
// a miss so callers fall back to recomputing.
func (s *CacheService) GetView(ctx context.Context, key string) ([]byte, bool) {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).Warnf("Failed to read view %s from cache", key)
		return nil, false
	}
	if entry == nil || entry.IsExpired() {
		return nil, false
	}
	return entry.GetData(), true
}

func (s *CacheService) CacheView(ctx context.Context, view, key string, data []byte) error {
	now := time.Now()
	cacheEntry := &entities.APICache{
		ID:             uuid.New().String(),
		CacheKey:       key,
		CacheType:      view,
		Data:           data,
		ContentType:    "application/json",
		ExpiresAt:      now.Add(s.ttl),
		HitCount:       0,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	if err := s.cache.Set(ctx, key, cacheEntry, s.ttl); err != nil {
		return fmt.Errorf("failed to cache view %s: %w", view, err)
	}
	return nil
}

// InvalidateViews drops every cached view.
func (s *CacheService) InvalidateViews(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, viewKeyPrefix+"*"); err != nil {
		return fmt.Errorf("failed to invalidate views: %w", err)
	}
	s.logger.Debug("Cached views invalidated")
	return nil
}

// CleanupExpiredCache sweeps expired entries from caches that do not expire
// keys on their own.
func (s *CacheService) CleanupExpiredCache(ctx context.Context) error {
	expiring, ok := s.cache.(ports.ExpiringCache)
	if !ok {
		return nil
	}
	removed, err := expiring.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}
	if removed > 0 {
		s.logger.Infof("Removed %d expired cache entries", removed)
	}
	return nil
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	return s.cache.HealthCheck(ctx)
}

// ViewKey builds the cache key of a view computed against a dataset version.
func ViewKey(view, datasetVersion string, params ...string) string {
	parts := append([]string{view, datasetVersion}, params...)
	return viewKeyPrefix + strings.Join(parts, ":")
}
