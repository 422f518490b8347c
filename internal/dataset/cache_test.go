package dataset

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/config"
	"etfseasonal/internal/shared/testutil"
)

func TestNewRedisCache_Unreachable(t *testing.T) {
	cfg := config.Default().Cache
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewRedisCache(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

// Runs against a live server when ETF_TEST_REDIS_ADDR is set.
func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("ETF_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ETF_TEST_REDIS_ADDR not set")
	}

	cfg := config.Default().Cache
	cfg.RedisAddr = addr
	cfg.TTL = time.Minute
	cfg.KeyPrefix = "etfseasonal-test:" + t.Name() + ":"

	ctx := context.Background()
	cache, err := NewRedisCache(ctx, cfg)
	require.NoError(t, err)
	defer cache.Close()

	_, found, err := cache.Get(ctx, "ETF_sector/XLB/pivot_vol_stats.json#-")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "ETF_sector/XLB/pivot_vol_stats.json#-", testutil.VolumeCollection()))

	c, found, err := cache.Get(ctx, "ETF_sector/XLB/pivot_vol_stats.json#-")
	require.NoError(t, err)
	require.True(t, found)
	tbl, err := c.Table("weekly_avg_vol_row")
	require.NoError(t, err)
	assert.Equal(t, 53, tbl.Len())
}
