package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"bizcard/internal/logging"
	"bizcard/internal/services"
)

const cacheKeyPrefix = "bizcard:ocr:"

// Cache stores detections by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]Detection, bool, error)
	Set(ctx context.Context, key string, dets []Detection, ttl time.Duration) error
}

// RedisCache keeps detections as JSON values in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at rawURL (redis://...).
func NewRedisCache(rawURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "ocr", "cache", "invalid redis url", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Detection, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var dets []Detection
	if err := json.Unmarshal(raw, &dets); err != nil {
		return nil, false, fmt.Errorf("decode cached detections: %w", err)
	}
	return dets, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, dets []Detection, ttl time.Duration) error {
	raw, err := json.Marshal(dets)
	if err != nil {
		return fmt.Errorf("encode detections: %w", err)
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedDetector consults a cache before running the wrapped detector.
// Cache failures are logged and otherwise ignored.
type CachedDetector struct {
	inner  Detector
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedDetector(inner Detector, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedDetector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CachedDetector{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (d *CachedDetector) Name() string { return d.inner.Name() }

// Cache exposes the backing cache for health checks.
func (d *CachedDetector) Cache() Cache { return d.cache }

func (d *CachedDetector) Detect(ctx context.Context, image []byte) ([]Detection, error) {
	key := CacheKey(d.inner.Name(), image)
	dets, ok, err := d.cache.Get(ctx, key)
	switch {
	case err != nil:
		d.logger.WarnContext(ctx, "ocr cache read failed", logging.Error(err))
	case ok:
		d.logger.DebugContext(ctx, "ocr cache hit", logging.String("key", key))
		return dets, nil
	}

	dets, err = d.inner.Detect(ctx, image)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Set(ctx, key, dets, d.ttl); err != nil {
		d.logger.WarnContext(ctx, "ocr cache write failed", logging.Error(err))
	}
	return dets, nil
}

func (d *CachedDetector) Close() error {
	var errs []error
	if c, ok := d.cache.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, Close(d.inner))
	return errors.Join(errs...)
}

// CacheKey derives the cache key for image under the named engine.
func CacheKey(engine string, image []byte) string {
	sum := sha256.Sum256(image)
	return cacheKeyPrefix + engine + ":" + hex.EncodeToString(sum[:])
}
