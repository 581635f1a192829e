package aiconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lexflow/internal/models"
	"lexflow/internal/services"

	gocache "github.com/patrickmn/go-cache"
)

// ResolutionTTL is the absolute time-to-live of cached resolutions.
// No sliding expiration.
const ResolutionTTL = 120 * time.Second

// CacheKey returns the cache key for an operation's resolved configuration.
func CacheKey(op models.OperationName) string {
	return "operation-config:" + string(op)
}

// ResolutionCache stores resolved configurations for the cache TTL.
// A (nil, nil) Get result is a miss.
type ResolutionCache interface {
	Get(ctx context.Context, op models.OperationName) (*models.MergedOperationConfig, error)
	Set(ctx context.Context, op models.OperationName, cfg *models.MergedOperationConfig) error
	Delete(ctx context.Context, op models.OperationName) error
}

// RedisResolutionCache backs the resolution cache with Redis, for fleets
// where every node must observe an invalidation at once.
type RedisResolutionCache struct {
	redis *services.RedisService
}

// NewRedisResolutionCache creates a Redis-backed resolution cache.
func NewRedisResolutionCache(redis *services.RedisService) *RedisResolutionCache {
	return &RedisResolutionCache{redis: redis}
}

func (c *RedisResolutionCache) Get(ctx context.Context, op models.OperationName) (*models.MergedOperationConfig, error) {
	raw, err := c.redis.Get(ctx, CacheKey(op))
	if err != nil {
		if services.IsCacheMiss(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached config: %w", err)
	}

	var cfg models.MergedOperationConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		// A corrupt entry is treated as a miss; resolution will overwrite it.
		return nil, nil
	}
	return &cfg, nil
}

func (c *RedisResolutionCache) Set(ctx context.Context, op models.OperationName, cfg *models.MergedOperationConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config for cache: %w", err)
	}
	return c.redis.Set(ctx, CacheKey(op), raw, ResolutionTTL)
}

func (c *RedisResolutionCache) Delete(ctx context.Context, op models.OperationName) error {
	return c.redis.Delete(ctx, CacheKey(op))
}

// MemoryResolutionCache keeps resolutions in-process. Used for single-node
// deployments without Redis and in tests.
type MemoryResolutionCache struct {
	cache *gocache.Cache
}

// NewMemoryResolutionCache creates an in-process resolution cache.
func NewMemoryResolutionCache() *MemoryResolutionCache {
	return &MemoryResolutionCache{
		cache: gocache.New(ResolutionTTL, 2*ResolutionTTL),
	}
}

func (c *MemoryResolutionCache) Get(_ context.Context, op models.OperationName) (*models.MergedOperationConfig, error) {
	value, found := c.cache.Get(CacheKey(op))
	if !found {
		return nil, nil
	}
	cfg, ok := value.(models.MergedOperationConfig)
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (c *MemoryResolutionCache) Set(_ context.Context, op models.OperationName, cfg *models.MergedOperationConfig) error {
	c.cache.Set(CacheKey(op), *cfg, ResolutionTTL)
	return nil
}

func (c *MemoryResolutionCache) Delete(_ context.Context, op models.OperationName) error {
	c.cache.Delete(CacheKey(op))
	return nil
}
