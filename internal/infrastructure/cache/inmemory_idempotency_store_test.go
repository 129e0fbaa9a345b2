package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("reserves a new key", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "checkout:k1", "pending", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		v, err := store.Get(ctx, "checkout:k1")
		require.NoError(t, err)
		assert.Equal(t, "pending", v)
	})

	t.Run("refuses a live key", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "checkout:k2", "pending", time.Hour)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.Reserve(ctx, "checkout:k2", "other", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		v, _ := store.Get(ctx, "checkout:k2")
		assert.Equal(t, "pending", v, "value is not overwritten")
	})

	t.Run("allows reuse after expiration", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "webhook:evt", "1", 10*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		v, err := store.Get(ctx, "webhook:evt")
		require.NoError(t, err)
		assert.Empty(t, v)

		ok, err = store.Reserve(ctx, "webhook:evt", "1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_SetAndRelease(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k", "pending", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "312345", time.Hour))

	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "312345", v)

	require.NoError(t, store.Release(ctx, "k"))
	v, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)

	ok, err := store.Reserve(ctx, "k", "pending", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released key can be reserved again")
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	store.Reserve(ctx, "short-lived-1", "1", 10*time.Millisecond)
	store.Reserve(ctx, "short-lived-2", "1", 10*time.Millisecond)
	store.Reserve(ctx, "long-lived", "1", time.Hour)

	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
	v, err := store.Get(ctx, "long-lived")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100

	results := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			ok, err := store.Reserve(ctx, "concurrent", "x", time.Hour)
			results <- err == nil && ok
		}()
	}

	won := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one goroutine should reserve the key")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
