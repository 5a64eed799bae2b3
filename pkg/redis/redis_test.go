package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(disabledClient(t), "screener")

	require.NoError(t, cache.SetBytes(ctx, "daily", []byte(`{}`), time.Hour))

	data, found, err := cache.GetBytes(ctx, "daily")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	assert.NoError(t, cache.Delete(ctx, "daily"))
}

func TestCache_Key(t *testing.T) {
	cache := NewCache(disabledClient(t), "screener")
	assert.Equal(t, "screener:cache:daily_stocks", cache.Key("daily_stocks"))
}

func TestTryLock_DisabledAlwaysAcquires(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(disabledClient(t), "screener")

	ok, err := cache.TryLock(ctx, "screening", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, cache.Unlock(ctx, "screening"))
}

func TestCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client, err := New(ctx, &config.Config{Redis: config.RedisConfig{
		Enabled: true, Host: "localhost", Port: "6379",
	}})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	cache := NewCache(client, "screener_test")
	defer cache.Delete(ctx, "roundtrip")

	require.NoError(t, cache.SetBytes(ctx, "roundtrip", []byte(`{"n":1}`), time.Minute))
	data, found, err := cache.GetBytes(ctx, "roundtrip")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"n":1}`, string(data))

	ok, err := cache.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = cache.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, cache.Unlock(ctx, "job"))
}
