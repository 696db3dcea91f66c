package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when no cached value exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// Compile-time check to ensure redisStatsCache implements StatsCache
var _ StatsCache = (*redisStatsCache)(nil)

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStatsCache creates a Redis-backed StatsCache with the given TTL.
func NewRedisStatsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) StatsCache {
	return &redisStatsCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisStatsCache"),
	}
}

func channelStatsKey(channelID uuid.UUID) string {
	return fmt.Sprintf("channel_stats:%s", channelID.String())
}

// GetChannelStats returns the cached aggregates or ErrCacheMiss.
func (c *redisStatsCache) GetChannelStats(ctx context.Context, channelID uuid.UUID) (*ChannelStats, error) {
	key := channelStatsKey(channelID)
	c.logger.Debug("Getting channel stats from Redis", zap.String("key", key))

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		c.logger.Error("Failed to get channel stats from redis", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to get channel stats from redis: %w", err)
	}

	stats := &ChannelStats{}
	if err := json.Unmarshal(raw, stats); err != nil {
		// Corrupt entry: drop it and treat as a miss rather than failing the read.
		c.logger.Error("Corrupted channel stats in redis, invalidating", zap.Error(err), zap.String("key", key))
		c.client.Del(ctx, key)
		return nil, ErrCacheMiss
	}
	return stats, nil
}

// SetChannelStats stores the aggregates with the configured TTL.
func (c *redisStatsCache) SetChannelStats(ctx context.Context, channelID uuid.UUID, stats *ChannelStats) error {
	key := channelStatsKey(channelID)
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal channel stats: %w", err)
	}

	c.logger.Debug("Setting channel stats in Redis", zap.String("key", key), zap.Duration("ttl", c.ttl))
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Error("Failed to set channel stats in redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to set channel stats in redis: %w", err)
	}
	return nil
}

// InvalidateChannelStats drops the cached aggregates after an edge change.
func (c *redisStatsCache) InvalidateChannelStats(ctx context.Context, channelID uuid.UUID) error {
	key := channelStatsKey(channelID)
	c.logger.Debug("Invalidating channel stats in Redis", zap.String("key", key))
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Failed to invalidate channel stats in redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to invalidate channel stats in redis: %w", err)
	}
	return nil
}
