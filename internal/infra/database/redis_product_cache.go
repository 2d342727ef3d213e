package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisProductCache reads products through Redis. Redis failures are
// logged and the database is used instead. Inside a unit of work, Redis is
// only written once the unit of work commits, so a rolled back row never
// reaches the cache.
type RedisProductCache struct {
	next    outbound.ProductRepository
	client  redis.Cmdable
	ttl     time.Duration
	logger  logger.Logger
	metrics metrics.Metrics
}

func NewRedisProductCache(next outbound.ProductRepository, client redis.Cmdable, ttl time.Duration, log logger.Logger, m metrics.Metrics) *RedisProductCache {
	return &RedisProductCache{next: next, client: client, ttl: ttl, logger: log, metrics: m}
}

func productKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *RedisProductCache) Get(ctx context.Context, id uint) (*entity.Product, error) {
	key := productKey(id)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p entity.Product
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			c.metrics.IncCacheHit("product")
			return &p, nil
		}
		c.logger.Warn(ctx, "Discarding unreadable cached product", logger.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn(ctx, "Redis unavailable for product lookup",
			logger.String("key", key),
			logger.WithError(err),
		)
	}
	c.metrics.IncCacheMiss("product")

	p, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(p); err == nil {
		c.afterCommit(ctx, func(ctx context.Context) {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Debug(ctx, "Failed to cache product", logger.String("key", key), logger.WithError(err))
			}
		})
	}
	return p, nil
}

func (c *RedisProductCache) Add(ctx context.Context, p *entity.Product) error {
	if err := c.next.Add(ctx, p); err != nil {
		return err
	}
	key := productKey(p.ID)
	c.afterCommit(ctx, func(ctx context.Context) {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.Warn(ctx, "Failed to evict cached product", logger.String("key", key), logger.WithError(err))
		}
	})
	return nil
}

// afterCommit runs fn when the unit of work in ctx commits, or right away
// when ctx has none.
func (c *RedisProductCache) afterCommit(ctx context.Context, fn func(context.Context)) {
	scope := data.CurrentScope(ctx)
	if scope == nil {
		fn(ctx)
		return
	}
	if err := scope.AfterCommit(fn); err != nil {
		c.logger.Warn(ctx, "Skipping cache write outside an open unit of work", logger.WithError(err))
	}
}

var _ outbound.ProductRepository = (*RedisProductCache)(nil)
