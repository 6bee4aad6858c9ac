package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	t.Run("miss", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set and get copies the value", func(t *testing.T) {
		value := []byte("hello")
		require.NoError(t, c.Set(ctx, "k", value, 0))
		value[0] = 'j'

		got, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("hello"), got)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "ttl", []byte("x"), time.Minute))

		_, ok, _ := c.Get(ctx, "ttl")
		assert.True(t, ok)

		now = now.Add(time.Minute)
		_, ok, _ = c.Get(ctx, "ttl")
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "gone", []byte("x"), 0))
		require.NoError(t, c.Delete(ctx, "gone"))
		require.NoError(t, c.Delete(ctx, "never-existed"))

		_, ok, _ := c.Get(ctx, "gone")
		assert.False(t, ok)
	})
}
