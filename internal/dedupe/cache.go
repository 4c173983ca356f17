package dedupe

import (
	"sync"
	"time"
)

type mark struct {
	id string
	at time.Time
}

// Cache remembers which document IDs were indexed recently so unchanged rows
// are not re-sent on every sync round. Entries expire after ttl and the oldest
// are evicted past capacity.
type Cache struct {
	mu       sync.Mutex
	seen     map[string]time.Time
	order    []mark
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		seen:     make(map[string]time.Time, capacity),
		order:    make([]mark, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// IsSeen reports whether id was marked inside the ttl window.
func (c *Cache) IsSeen(id string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.seen[id]
	return ok && now.Sub(at) <= c.ttl
}

// MarkSeen records that id has been indexed.
func (c *Cache) MarkSeen(id string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seen[id] = now
	c.order = append(c.order, mark{id: id, at: now})
	c.compact(now)
}

// Retain forgets every id not in keep. Used after stale documents are deleted
// so a row that comes back is indexed again.
func (c *Cache) Retain(keep map[string]struct{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for id := range c.seen {
		if _, ok := keep[id]; !ok {
			delete(c.seen, id)
			dropped++
		}
	}
	if dropped == 0 {
		return 0
	}

	live := c.order[:0]
	for _, m := range c.order {
		if at, ok := c.seen[m.id]; ok && at.Equal(m.at) {
			live = append(live, m)
		}
	}
	c.order = live
	return dropped
}

// Len returns the number of remembered ids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.seen) > c.capacity || c.order[0].at.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		// A re-marked id has a newer entry further down the queue.
		if at, ok := c.seen[oldest.id]; ok && at.Equal(oldest.at) {
			delete(c.seen, oldest.id)
		}
	}
}
