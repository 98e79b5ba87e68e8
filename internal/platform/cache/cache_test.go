package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

type dashboard struct {
	TotalRegistered int     `json:"totalRegistered"`
	ANC4Rate        float64 `json:"anc4Rate"`
}

func setupTestCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *Cache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewFromClient(client, ttl, zerolog.Nop())
}

func TestCache_SetAndGet(t *testing.T) {
	_, c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	key := Key("stats", "admin", "2024-05")
	require.NoError(t, c.SetJSON(ctx, key, dashboard{TotalRegistered: 12, ANC4Rate: 41.7}))

	var got dashboard
	require.NoError(t, c.GetJSON(ctx, key, &got))
	assert.Equal(t, 12, got.TotalRegistered)
	assert.Equal(t, 41.7, got.ANC4Rate)
}

func TestCache_Miss(t *testing.T) {
	_, c := setupTestCache(t, time.Minute)

	var got dashboard
	err := c.GetJSON(context.Background(), Key("absent"), &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_Expires(t *testing.T) {
	mr, c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, Key("k"), dashboard{TotalRegistered: 1}))
	mr.FastForward(2 * time.Minute)

	var got dashboard
	assert.ErrorIs(t, c.GetJSON(ctx, Key("k"), &got), ErrMiss)
}

func TestCache_UndecodableEntryIsMiss(t *testing.T) {
	mr, c := setupTestCache(t, time.Minute)
	require.NoError(t, mr.Set(Key("broken"), "{not json"))

	var got dashboard
	assert.ErrorIs(t, c.GetJSON(context.Background(), Key("broken"), &got), ErrMiss)
}

func TestCache_InvalidatePrefix(t *testing.T) {
	mr, c := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, Key("stats", "admin", "a"), 1))
	require.NoError(t, c.SetJSON(ctx, Key("stats", "facility", "b"), 2))
	require.NoError(t, c.SetJSON(ctx, Key("other", "c"), 3))

	n, err := c.InvalidatePrefix(ctx, Key("stats"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists(Key("stats", "admin", "a")))
	assert.True(t, mr.Exists(Key("other", "c")))
}

func TestCache_RecordsMetrics(t *testing.T) {
	_, c := setupTestCache(t, time.Minute)
	m := metrics.New("test", prometheus.NewRegistry())
	c.WithMetrics(m)
	ctx := context.Background()

	var got dashboard
	_ = c.GetJSON(ctx, Key("x"), &got)
	require.NoError(t, c.SetJSON(ctx, Key("x"), dashboard{}))
	require.NoError(t, c.GetJSON(ctx, Key("x"), &got))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOps.WithLabelValues("get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOps.WithLabelValues("get", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOps.WithLabelValues("set", "ok")))
}

func TestNew_PingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+mr.Addr()+"/0", time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Health(context.Background()))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-url", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}
