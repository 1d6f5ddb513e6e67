package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func TestNewRedisRatingCache_BadURL(t *testing.T) {
	t.Parallel()
	_, err := NewRedisRatingCache(context.Background(), "not a url", time.Minute)
	require.Error(t, err)
}

func TestKey(t *testing.T) {
	t.Parallel()
	id := uuid.MustParse("6f1c2d9e-8a31-4c55-9a53-3c1f0d2b7e10")
	assert.Equal(t, "bookstore:rating:6f1c2d9e-8a31-4c55-9a53-3c1f0d2b7e10", key(id))
	assert.Equal(t, "bookstore:rating:ver:6f1c2d9e-8a31-4c55-9a53-3c1f0d2b7e10", versionKey(id))
}

func TestRedisRatingCache_RoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL is not set")
	}
	ctx := context.Background()
	c, err := NewRedisRatingCache(ctx, url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	id := uuid.New()
	_, ok, err := c.GetStats(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	ver, err := c.Version(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, ver)

	want := models.RatingStats{Average: 4.5, Count: 2}
	require.NoError(t, c.SetStats(ctx, id, want, ver))

	got, ok, err := c.GetStats(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Invalidate(ctx, id))
	_, ok, err = c.GetStats(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// a fill computed before the invalidation must not land
	require.NoError(t, c.SetStats(ctx, id, want, ver))
	_, ok, err = c.GetStats(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	ver, err = c.Version(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ver)
	require.NoError(t, c.SetStats(ctx, id, want, ver))
	_, ok, err = c.GetStats(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
