package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *LocalCache {
	c, err := NewCache(Config{GCInterval: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "session:abc", "42", 0))

	v, err := c.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "presence:1", "1", 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	_, err := c.Get(ctx, "presence:1")
	assert.ErrorIs(t, err, ErrNotFound)
	exists, err := c.Exists(ctx, "presence:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDel(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	_ = c.Set(ctx, "a", "v", 0)
	_ = c.Set(ctx, "b", "v", 0)
	require.NoError(t, c.Del(ctx, "a", "b"))
	for _, k := range []string{"a", "b"} {
		ok, _ := c.Exists(ctx, k)
		assert.False(t, ok, k)
	}
}

func TestExpire_ExtendsLiveKey(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", 15*time.Millisecond))
	require.NoError(t, c.Expire(ctx, "k", time.Minute))

	time.Sleep(30 * time.Millisecond)
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpire_Missing(t *testing.T) {
	c := newTestCache(t)
	assert.ErrorIs(t, c.Expire(context.Background(), "nope", time.Minute), ErrNotFound)
}

func TestGCRemovesExpired(t *testing.T) {
	c, err := NewCache(Config{GCInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	_ = c.Set(context.Background(), "gone", "v", time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	c.mu.RLock()
	_, present := c.kv["gone"]
	c.mu.RUnlock()
	assert.False(t, present)
}

func TestClose_Idempotent(t *testing.T) {
	c, err := NewCache(Config{})
	require.NoError(t, err)
	c.Close()
	c.Close()
}
