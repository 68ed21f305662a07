// Package redis puts a Redis read-through cache in front of a catalog store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"3tcapital/ms_emision_dian/internal/core/catalog"
	"3tcapital/ms_emision_dian/internal/infrastructure/metrics"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "emision:catalog:"

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = 12 * time.Hour

// Cache serves catalog codes from Redis and falls back to the wrapped store.
// Redis failures are logged and never fail a lookup.
type Cache struct {
	next    catalog.Store
	client  redis.Cmdable
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewCache(next catalog.Store, client redis.Cmdable, ttl time.Duration, m *metrics.Metrics, log *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{next: next, client: client, ttl: ttl, metrics: m, log: log}
}

var _ catalog.Store = (*Cache)(nil)

func (c *Cache) Lookup(ctx context.Context, domain catalog.Domain, code string) (int, error) {
	key := keyPrefix + string(domain) + ":" + code

	id, err := c.client.Get(ctx, key).Int()
	switch {
	case err == nil:
		c.metrics.ObserveCatalogLookup("hit")
		return id, nil
	case errors.Is(err, redis.Nil):
		c.metrics.ObserveCatalogLookup("miss")
	default:
		c.metrics.ObserveCatalogLookup("error")
		c.log.WarnContext(ctx, "catalog cache read failed",
			"domain", string(domain),
			"code", code,
			"error", err,
		)
	}

	// The fill is shared by every waiter on key, so it must outlive the caller
	// that happened to start it.
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		id, err := c.next.Lookup(fillCtx, domain, code)
		if err != nil {
			return 0, err
		}
		if err := c.client.Set(fillCtx, key, strconv.Itoa(id), c.ttl).Err(); err != nil {
			c.log.WarnContext(fillCtx, "catalog cache write failed",
				"domain", string(domain),
				"code", code,
				"error", err,
			)
		}
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	id, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("catalog cache: unexpected value %T", v)
	}
	return id, nil
}
