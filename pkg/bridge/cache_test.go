package bridge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEvictsOldestBeyondCapacity(t *testing.T) {
	c := NewRecentCache(100)
	for i := 0; i < 101; i++ {
		c.Put(fmt.Sprintf("msg-%d", i), CacheEntry{Content: fmt.Sprintf("content %d", i)})
	}

	assert.Equal(t, 100, c.Len())

	_, ok := c.Get("msg-0")
	assert.False(t, ok, "first-inserted entry should be evicted")

	entry, ok := c.Get("msg-100")
	require.True(t, ok)
	assert.Equal(t, "content 100", entry.Content)
}

func TestCacheReinsertRefreshesEvictionOrder(t *testing.T) {
	c := NewRecentCache(3)
	c.Put("a", CacheEntry{Content: "a1"})
	c.Put("b", CacheEntry{Content: "b1"})
	c.Put("c", CacheEntry{Content: "c1"})

	// Re-put moves "a" to the back of the eviction order.
	c.Put("a", CacheEntry{Content: "a2"})
	c.Put("d", CacheEntry{Content: "d1"})

	_, ok := c.Get("b")
	assert.False(t, ok, "b became the oldest after a was refreshed")

	entry, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a2", entry.Content)

	_, ok = c.Get("c")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := NewRecentCache(0)
	for i := 0; i < 150; i++ {
		c.Put(fmt.Sprintf("msg-%d", i), CacheEntry{})
	}
	assert.Equal(t, defaultCacheCapacity, c.Len())
}

func TestCacheGetMissingKey(t *testing.T) {
	c := NewRecentCache(10)
	_, ok := c.Get("nope")
	assert.False(t, ok)
}
