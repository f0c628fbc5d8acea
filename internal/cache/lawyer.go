// Package cache holds lawyer profiles in Redis with a bounded lifetime.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

const keyPrefix = "justicehub:lawyer:"

// LawyerCache stores profiles keyed by lawyer id.
type LawyerCache interface {
	Get(ctx context.Context, id uint) (*model.LawyerProfile, bool)
	Set(ctx context.Context, p *model.LawyerProfile)
	Invalidate(ctx context.Context, id uint)
}

// RedisLawyerCache is a LawyerCache backed by Redis. Cache failures are
// logged and treated as misses so they never fail a request.
type RedisLawyerCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewClient parses a redis:// URL and verifies connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
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

// NewRedisLawyerCache creates a cache whose entries expire after ttl.
func NewRedisLawyerCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisLawyerCache {
	return &RedisLawyerCache{
		client: client,
		ttl:    ttl,
		logger: log.Component("cache"),
	}
}

func key(id uint) string {
	return keyPrefix + strconv.FormatUint(uint64(id), 10)
}

// Get returns the cached profile for id.
func (c *RedisLawyerCache) Get(ctx context.Context, id uint) (*model.LawyerProfile, bool) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.Uint("lawyer_id", id), zap.Error(err))
			metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
			return nil, false
		}
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var p model.LawyerProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("discarding corrupt cache entry", zap.Uint("lawyer_id", id), zap.Error(err))
		c.Invalidate(ctx, id)
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		return nil, false
	}

	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return &p, true
}

// Set stores p until the TTL elapses.
func (c *RedisLawyerCache) Set(ctx context.Context, p *model.LawyerProfile) {
	raw, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("failed to encode profile", zap.Uint("lawyer_id", p.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key(p.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.Uint("lawyer_id", p.ID), zap.Error(err))
	}
}

// Invalidate drops the entry for id.
func (c *RedisLawyerCache) Invalidate(ctx context.Context, id uint) {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Uint("lawyer_id", id), zap.Error(err))
	}
}

// NopLawyerCache never stores anything. Used when Redis is not configured.
type NopLawyerCache struct{}

func (NopLawyerCache) Get(ctx context.Context, id uint) (*model.LawyerProfile, bool) {
	metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	return nil, false
}

func (NopLawyerCache) Set(ctx context.Context, p *model.LawyerProfile) {}

func (NopLawyerCache) Invalidate(ctx context.Context, id uint) {}
