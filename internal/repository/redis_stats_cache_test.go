package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStatsCache(client, 30*time.Second, zap.NewNop()), mr
}

func TestChannelStatsCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	channelID := uuid.New()

	_, err := cache.GetChannelStats(ctx, channelID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	want := &ChannelStats{SubscriberCount: 42, SubscribedToCount: 7}
	require.NoError(t, cache.SetChannelStats(ctx, channelID, want))

	got, err := cache.GetChannelStats(ctx, channelID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestChannelStatsCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	channelID := uuid.New()

	require.NoError(t, cache.SetChannelStats(ctx, channelID, &ChannelStats{SubscriberCount: 1}))
	require.NoError(t, cache.InvalidateChannelStats(ctx, channelID))

	_, err := cache.GetChannelStats(ctx, channelID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestChannelStatsCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	channelID := uuid.New()

	require.NoError(t, cache.SetChannelStats(ctx, channelID, &ChannelStats{SubscriberCount: 3}))
	mr.FastForward(time.Minute)

	_, err := cache.GetChannelStats(ctx, channelID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestChannelStatsCacheCorruptedEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	channelID := uuid.New()

	require.NoError(t, mr.Set(channelStatsKey(channelID), "not-json"))

	_, err := cache.GetChannelStats(ctx, channelID)
	assert.ErrorIs(t, err, ErrCacheMiss, "corrupted entries are treated as misses")
}
