package qrcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory(2, 0)
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "111", "qr-1"))
	require.NoError(t, cache.Set(ctx, "111", "qr-2"))

	qr, ok := cache.Get(ctx, "111")
	require.True(t, ok)
	assert.Equal(t, "qr-2", qr)

	require.NoError(t, cache.Delete(ctx, "111"))
	_, ok = cache.Get(ctx, "111")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory(2, 0)
	require.NoError(t, err)

	for _, id := range []session.Identifier{"1", "2", "3"} {
		require.NoError(t, cache.Set(ctx, id, "qr-"+id.String()))
	}

	_, ok := cache.Get(ctx, "1")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestMemoryCacheExpiresEntries(t *testing.T) {
	ctx := context.Background()
	cache, err := NewMemory(4, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.Set(ctx, "111", "qr"))

	_, ok := cache.Get(ctx, "111")
	assert.True(t, ok)

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, ok = cache.Get(ctx, "111")
	assert.False(t, ok)
}

func TestMemoryCacheRejectsInvalidSize(t *testing.T) {
	_, err := NewMemory(0, 0)
	assert.Error(t, err)
}

func TestBuildUniversalOptions(t *testing.T) {
	opts, err := buildUniversalOptions("redis://:secret@cache-1:6379/2, cache-2:6379")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache-1:6379", "cache-2:6379"}, opts.Addrs)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = buildUniversalOptions(" , ")
	assert.Error(t, err)
}
