package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bevops/truckplan/internal/config"
	"github.com/bevops/truckplan/internal/planning"
)

const (
	projectionKeyPrefix   = "truckplan:projection"
	projectionScanBatches = 100
)

// ProjectionCache holds computed ledger projections keyed by SKU and plan
// date. Projections are cheap but the snapshot load behind them is not, so a
// short TTL saves most dashboard traffic a database round trip.
type ProjectionCache interface {
	Get(ctx context.Context, sku, planDate string) (*planning.Projection, bool, error)
	Set(ctx context.Context, sku, planDate string, projection *planning.Projection) error
	Invalidate(ctx context.Context, sku string) error
	InvalidateAll(ctx context.Context) error
}

type redisProjectionCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopProjectionCache struct{}

func NewProjectionCache(cfg config.CacheConfig) (ProjectionCache, error) {
	if !cfg.Enabled {
		return &noopProjectionCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisProjectionCache{client: client, ttl: ttl}, nil
}

func NewNoopProjectionCache() ProjectionCache {
	return &noopProjectionCache{}
}

func (c *redisProjectionCache) Get(ctx context.Context, sku, planDate string) (*planning.Projection, bool, error) {
	payload, err := c.client.Get(ctx, buildProjectionKey(sku, planDate)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var projection planning.Projection
	if err := json.Unmarshal(payload, &projection); err != nil {
		return nil, false, fmt.Errorf("decode projection cache: %w", err)
	}
	return &projection, true, nil
}

func (c *redisProjectionCache) Set(ctx context.Context, sku, planDate string, projection *planning.Projection) error {
	payload, err := json.Marshal(projection)
	if err != nil {
		return fmt.Errorf("encode projection cache: %w", err)
	}
	if err := c.client.Set(ctx, buildProjectionKey(sku, planDate), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisProjectionCache) Invalidate(ctx context.Context, sku string) error {
	prefix := fmt.Sprintf("%s:%s:", projectionKeyPrefix, skuHash(sku))
	return deleteKeysWithPrefix(ctx, c.client, prefix, projectionScanBatches)
}

func (c *redisProjectionCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, projectionKeyPrefix, projectionScanBatches)
}

func (n *noopProjectionCache) Get(ctx context.Context, sku, planDate string) (*planning.Projection, bool, error) {
	return nil, false, nil
}

func (n *noopProjectionCache) Set(ctx context.Context, sku, planDate string, projection *planning.Projection) error {
	return nil
}

func (n *noopProjectionCache) Invalidate(ctx context.Context, sku string) error {
	return nil
}

func (n *noopProjectionCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildProjectionKey(sku, planDate string) string {
	return fmt.Sprintf("%s:%s:%s", projectionKeyPrefix, skuHash(sku), planDate)
}

// skuHash keeps arbitrary SKU strings out of the key space.
func skuHash(sku string) string {
	sum := sha1.Sum([]byte(sku))
	return hex.EncodeToString(sum[:])
}
