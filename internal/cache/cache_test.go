package cache_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trendscout/trendscout/internal/cache"
)

// setupRedis spins up a Redis container and returns a connected cache.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	c, err := cache.NewRedisCache(fmt.Sprintf("redis://%s:%s", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.NoError(t, c.Ping(ctx))
	return c
}

func TestSetGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	c := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestGet_Missing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	c := setupRedis(t)

	val, found, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSet_TTLExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	c := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "ephemeral", []byte("x"), 500*time.Millisecond))
	time.Sleep(time.Second)

	_, found, err := c.Get(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	c := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error.
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	c := setupRedis(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrWithExpiry(ctx, "counter", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

// Key helpers need no container.

func TestSearchStatusKey(t *testing.T) {
	assert.Equal(t, "search:status:42", cache.SearchStatusKey(42))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:ts_abcd1", cache.RateLimitKey("ts_abcd1"))
}

func TestTrendSeriesKey(t *testing.T) {
	a := cache.TrendSeriesKey("air fryer", "US", 2020, 2023)
	b := cache.TrendSeriesKey("air fryer", "US", 2020, 2023)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "trends:series:"))

	// Any parameter change produces a distinct key.
	assert.NotEqual(t, a, cache.TrendSeriesKey("air fryer", "DE", 2020, 2023))
	assert.NotEqual(t, a, cache.TrendSeriesKey("air fryer", "US", 2021, 2023))
	assert.NotEqual(t, a, cache.TrendSeriesKey("air fryer", "US", 2020, 2022))
	assert.NotEqual(t, a, cache.TrendSeriesKey("air fryers", "US", 2020, 2023))
}
