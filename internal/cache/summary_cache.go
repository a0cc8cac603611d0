package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ledgerflow/internal/config"
	"ledgerflow/internal/port"
)

const summaryTTL = 15 * time.Minute

// RedisSummaryCache caches tenant-scoped purchase/sale aggregates in Redis.
// It implements port.SummaryCache.
type RedisSummaryCache struct {
	client *redis.Client
}

// NewRedisSummaryCache connects to Redis and returns a SummaryCache.
func NewRedisSummaryCache(cfg *config.RedisConfig) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisSummaryCache{client: client}, nil
}

func summaryKey(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("summary:%s:%s", tenantID, key)
}

func (c *RedisSummaryCache) Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, summaryKey(tenantID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (c *RedisSummaryCache) Set(ctx context.Context, tenantID uuid.UUID, key string, value []byte) error {
	if err := c.client.Set(ctx, summaryKey(tenantID, key), value, summaryTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// InvalidateTenant drops every cached aggregate for the tenant. Called after
// approval commits purchase/sale totals.
func (c *RedisSummaryCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("summary:%s:*", tenantID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

var _ port.SummaryCache = (*RedisSummaryCache)(nil)
