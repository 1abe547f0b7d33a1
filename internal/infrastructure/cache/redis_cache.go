package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/domain/entities"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const metaSuffix = ":meta"

type RedisCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedisCache(cfg config.RedisConfig, log logger.Logger) (*RedisCache, error) {
	log = logger.Component(log, "redis_cache")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConnections,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infof("Redis cache connected to %s:%d", cfg.Host, cfg.Port)
	return &RedisCache{
		client: client,
		logger: log,
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (entities.APICacheEntity, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	meta, err := r.client.HGetAll(ctx, metaKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	entry := entryFromMeta(key, data, meta)

	// Stats are best effort and must outlive the request context.
	go r.updateAccessStats(key)

	return entry, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, data entities.APICacheEntity, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data.GetData(), ttl)
	pipe.HSet(ctx, metaKey(key), map[string]interface{}{
		"id":               data.GetID(),
		"cache_type":       data.GetCacheType(),
		"content_type":     data.GetContentType(),
		"expires_at":       data.GetExpiresAt().Format(time.RFC3339),
		"hit_count":        data.GetHitCount(),
		"created_at":       data.GetCreatedAt().Format(time.RFC3339),
		"last_accessed_at": data.GetLastAccessedAt().Format(time.RFC3339),
	})
	pipe.Expire(ctx, metaKey(key), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set data in Redis: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key, metaKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete from Redis: %w", err)
	}
	return nil
}

// DeleteByPattern scans in batches of 100 so large keyspaces do not block
// the server.
func (r *RedisCache) DeleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	var deleted int64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			withMeta := make([]string, 0, len(keys)*2)
			for _, key := range keys {
				withMeta = append(withMeta, key, metaKey(key))
			}
			count, err := r.client.Del(ctx, withMeta...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	r.logger.Debugf("Deleted %d keys matching %s", deleted, pattern)
	return nil
}

func (r *RedisCache) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	testKey := "healthcheck:" + time.Now().Format("20060102150405")
	if err := r.client.Set(ctx, testKey, "ok", 10*time.Second).Err(); err != nil {
		return fmt.Errorf("Redis set test failed: %w", err)
	}

	val, err := r.client.Get(ctx, testKey).Result()
	if err != nil {
		return fmt.Errorf("Redis get test failed: %w", err)
	}
	if val != "ok" {
		return fmt.Errorf("Redis test value mismatch")
	}

	return nil
}

// Client exposes the connection so other Redis-backed stores can share it.
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) Close() error {
	r.logger.Info("Closing Redis cache...")
	return r.client.Close()
}

func (r *RedisCache) updateAccessStats(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, metaKey(key), "hit_count", 1)
	pipe.HSet(ctx, metaKey(key), "last_accessed_at", time.Now().Format(time.RFC3339))
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.WithError(err).Debugf("Failed to update access stats for %s", key)
	}
}

func metaKey(key string) string {
	return key + metaSuffix
}

func entryFromMeta(key string, data []byte, meta map[string]string) *entities.APICache {
	expiresAt, _ := time.Parse(time.RFC3339, meta["expires_at"])
	createdAt, _ := time.Parse(time.RFC3339, meta["created_at"])
	lastAccessedAt, _ := time.Parse(time.RFC3339, meta["last_accessed_at"])
	hitCount, _ := strconv.Atoi(meta["hit_count"])

	return &entities.APICache{
		ID:             meta["id"],
		CacheKey:       key,
		CacheType:      meta["cache_type"],
		Data:           data,
		ContentType:    meta["content_type"],
		ExpiresAt:      expiresAt,
		HitCount:       hitCount,
		CreatedAt:      createdAt,
		LastAccessedAt: lastAccessedAt,
	}
}
