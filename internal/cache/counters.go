package cache

import "sync/atomic"

// counters are cumulative. Only bound-driven evictions (capacity, cost) count
// as evicted; explicit removals and purges do not.
type counters struct {
	hits         atomic.Int64
	misses       atomic.Int64
	inserts      atomic.Int64
	evictedItems atomic.Int64
	evictedBytes atomic.Int64
}

func (c *counters) evicted(reason EvictReason, cost int64) {
	switch reason {
	case EvictCapacity, EvictCost:
		c.evictedItems.Add(1)
		c.evictedBytes.Add(cost)
	}
}

func (c *counters) snapshot() (hits, misses, inserts, evictedItems, evictedBytes int64) {
	return c.hits.Load(), c.misses.Load(), c.inserts.Load(), c.evictedItems.Load(), c.evictedBytes.Load()
}
