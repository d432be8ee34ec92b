package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerSearchCacheTTL(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewPlayerSearchCache(5*time.Minute, 10, clock)
	cache.Put("james", []string{"LeBron James"})

	names, ok := cache.Get("james")
	require.True(t, ok)
	assert.Equal(t, []string{"LeBron James"}, names)

	// Advance past the TTL
	now = now.Add(5*time.Minute + time.Second)
	_, ok = cache.Get("james")
	assert.False(t, ok, "expired entry must miss")
	assert.Equal(t, 0, cache.Len(), "expired entry is dropped on read")
}

func TestPlayerSearchCacheCapacity(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewPlayerSearchCache(time.Hour, 3, clock)
	for i := 0; i < 3; i++ {
		cache.Put(fmt.Sprintf("q%d", i), []string{"x"})
		now = now.Add(time.Second)
	}
	require.Equal(t, 3, cache.Len())

	// The oldest entry makes room for the new one
	cache.Put("q3", []string{"y"})
	assert.Equal(t, 3, cache.Len())
	_, ok := cache.Get("q0")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = cache.Get("q3")
	assert.True(t, ok)
}

func TestPlayerSearchCacheMiss(t *testing.T) {
	cache := NewPlayerSearchCache(time.Minute, 10, nil)
	_, ok := cache.Get("nobody")
	assert.False(t, ok)
}
