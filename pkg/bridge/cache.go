package bridge

import (
	"sync"

	orderedmap "github.com/elliotchance/orderedmap/v3"

	"github.com/nortecrm/whatsapp-bridge/pkg/contact"
)

const defaultCacheCapacity = 100

// CacheEntry is the content snapshot kept per message for correlating later
// asynchronous events (delivery receipts) back to content already seen.
type CacheEntry struct {
	Content          string
	Kind             MessageKind
	TimestampSeconds int64
	Contact          contact.Identity
}

// RecentCache is a bounded, insertion-ordered store keyed by message ID.
// When capacity is exceeded the oldest-inserted entry is evicted; there is
// no TTL, capacity alone bounds memory. Entries are never mutated in place:
// a Put with an existing key counts as a fresh insertion for ordering.
// Safe for concurrent use; process-lifetime only, nothing persists.
type RecentCache struct {
	mu       sync.Mutex
	capacity int
	entries  *orderedmap.OrderedMap[string, CacheEntry]
}

func NewRecentCache(capacity int) *RecentCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &RecentCache{
		capacity: capacity,
		entries:  orderedmap.NewOrderedMap[string, CacheEntry](),
	}
}

func (c *RecentCache) Put(id string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-inserting moves the key to the back of the eviction order.
	c.entries.Delete(id)
	c.entries.Set(id, entry)

	for c.entries.Len() > c.capacity {
		if front := c.entries.Front(); front != nil {
			c.entries.Delete(front.Key)
		}
	}
}

func (c *RecentCache) Get(id string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(id)
}

func (c *RecentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
