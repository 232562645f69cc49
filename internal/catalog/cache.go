package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	productCachePrefix     = "product:detail:"
	productListCachePrefix = "products:v:"
	cacheVersionKey        = "products:version"
)

// Cache is a read-through cache for catalog reads.
type Cache interface {
	GetProduct(ctx context.Context, id int64) (*Product, bool)
	SetProduct(ctx context.Context, p *Product)
	GetList(ctx context.Context, f Filter) ([]Product, bool)
	SetList(ctx context.Context, f Filter, products []Product)
	Invalidate(ctx context.Context, id int64) error
}

// NopCache never hits. Used when no Redis is configured.
type NopCache struct{}

func (NopCache) GetProduct(context.Context, int64) (*Product, bool) { return nil, false }
func (NopCache) SetProduct(context.Context, *Product) {}
func (NopCache) GetList(context.Context, Filter) ([]Product, bool) { return nil, false }
func (NopCache) SetList(context.Context, Filter, []Product) {}
func (NopCache) Invalidate(context.Context, int64) error { return nil }

// RedisCache stores product details under per-id keys and listings under
// keys prefixed with a version counter; bumping the counter orphans every
// cached listing at once.
type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	return &RedisCache{redis: client, ttl: ttl, log: log}
}

// NewRedisClient parses redisURL and pings the server.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func productKey(id int64) string {
	return productCachePrefix + strconv.FormatInt(id, 10)
}

func listKey(version int64, f Filter) string {
	f = f.Normalize()
	return fmt.Sprintf("%s%d:c=%s:q=%s:l=%d:o=%d", productListCachePrefix, version, f.Category, f.Search, f.Limit, f.Offset)
}

func (c *RedisCache) GetProduct(ctx context.Context, id int64) (*Product, bool) {
	raw, err := c.redis.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		c.log.Warn("Failed to unmarshal cached product", zap.Int64("product_id", id), zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *RedisCache) SetProduct(ctx context.Context, p *Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, productKey(p.ID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Failed to cache product", zap.Int64("product_id", p.ID), zap.Error(err))
	}
}

func (c *RedisCache) GetList(ctx context.Context, f Filter) ([]Product, bool) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, listKey(version, f)).Bytes()
	if err != nil {
		return nil, false
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		c.log.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *RedisCache) SetList(ctx context.Context, f Filter, products []Product) {
	version, err := c.version(ctx)
	if err != nil {
		return
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, listKey(version, f), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Failed to cache product list", zap.Error(err))
	}
}

// Invalidate drops the product detail and every cached listing.
func (c *RedisCache) Invalidate(ctx context.Context, id int64) error {
	pipe := c.redis.TxPipeline()
	pipe.Del(ctx, productKey(id))
	pipe.Incr(ctx, cacheVersionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate product %d: %w", id, err)
	}
	return nil
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	v, err := c.redis.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}
