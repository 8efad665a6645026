package feed

import "sync/atomic"

type counters struct {
	prefetchStarted   atomic.Int64
	prefetchCompleted atomic.Int64
	prefetchFailed    atomic.Int64
	prefetchCancelled atomic.Int64
	pagesLoaded       atomic.Int64
	cleanups          atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (started, completed, failed, pages, cleanups int64) {
	return c.prefetchStarted.Load(), c.prefetchCompleted.Load(), c.prefetchFailed.Load(), c.pagesLoaded.Load(), c.cleanups.Load()
}
