package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := NewRedisAdapter("redis://"+mr.Addr(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter, mr
}

func TestRedisAdapter_GetSet(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "quote:1", []byte(`{"total":"1800.00"}`), 10*time.Second))

	got, err := adapter.Get(ctx, "quote:1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"total":"1800.00"}`), got)
	assert.True(t, mr.Exists("test:quote:1"), "keys are namespaced")
}

func TestRedisAdapter_Miss(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	_, err := adapter.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisAdapter_Delete(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, adapter.Delete(ctx, "k"))
	require.NoError(t, adapter.Delete(ctx, "k"))

	_, err := adapter.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisAdapter_TTL(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, adapter.Set(ctx, "forever", []byte("v"), 0))

	remaining, err := adapter.TTL(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, remaining)

	remaining, err = adapter.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	mr.FastForward(2 * time.Minute)

	_, err = adapter.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = adapter.TTL(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisAdapter_Ping(t *testing.T) {
	adapter, mr := newTestAdapter(t)
	assert.NoError(t, adapter.Ping(context.Background()))

	mr.Close()
	assert.Error(t, adapter.Ping(context.Background()))
}

func TestRedisAdapter_InvalidURL(t *testing.T) {
	_, err := NewRedisAdapter("invalid://url", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}
