package evictor

import "sync/atomic"

// pruneCounters tracks disk prune runs. A run is productive when it freed
// at least one file.
type pruneCounters struct {
	runs       atomic.Int64
	productive atomic.Int64
	files      atomic.Int64
	bytes      atomic.Int64
	failures   atomic.Int64
}

func (c *pruneCounters) record(freed, removed int64, err error) {
	c.runs.Add(1)
	if err != nil {
		c.failures.Add(1)
	}
	if removed > 0 {
		c.productive.Add(1)
		c.files.Add(removed)
		c.bytes.Add(freed)
	}
}

func (c *pruneCounters) snapshot() (scans, hits, evictedItems, evictedBytes, errs int64) {
	return c.runs.Load(), c.productive.Load(), c.files.Load(), c.bytes.Load(), c.failures.Load()
}
