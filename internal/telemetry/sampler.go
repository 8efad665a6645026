package telemetry

import "github.com/Borislavv/go-ash-feed/internal/evictor"

// CacheStats is the part of the asset cache the sampler reads.
type CacheStats interface {
	CacheMetrics() (hits, misses, inserts, evictedItems, evictedBytes int64)
	Len() int64
	Mem() int64
}

// FeedStats is the part of the feed controller the sampler reads.
type FeedStats interface {
	Metrics() (prefetchStarted, prefetchCompleted, prefetchFailed, pagesLoaded, cleanups int64)
}

type sampler struct {
	cache   CacheStats
	evictor evictor.Evictor
	feed    FeedStats
}

func newSampler(c CacheStats, e evictor.Evictor, f FeedStats) sampler {
	return sampler{cache: c, evictor: e, feed: f}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	hits         uint64
	misses       uint64
	inserts      uint64
	evictedItems uint64
	evictedBytes uint64

	pruneScans  uint64
	pruneHits   uint64
	prunedItems uint64
	prunedBytes uint64
	pruneErrors uint64

	prefetchStarted   uint64
	prefetchCompleted uint64
	prefetchFailed    uint64
	pagesLoaded       uint64
	cleanups          uint64
}

func (s sampler) snapshot() snapshot {
	hits, misses, inserts, evictedItems, evictedBytes := s.cache.CacheMetrics()
	scans, scanHits, prunedItems, prunedBytes, pruneErrs := s.evictor.Metrics()
	started, completed, failed, pages, cleanups := s.feed.Metrics()

	return snapshot{
		hits:         uint64(max(hits, 0)),
		misses:       uint64(max(misses, 0)),
		inserts:      uint64(max(inserts, 0)),
		evictedItems: uint64(max(evictedItems, 0)),
		evictedBytes: uint64(max(evictedBytes, 0)),

		pruneScans:  uint64(max(scans, 0)),
		pruneHits:   uint64(max(scanHits, 0)),
		prunedItems: uint64(max(prunedItems, 0)),
		prunedBytes: uint64(max(prunedBytes, 0)),
		pruneErrors: uint64(max(pruneErrs, 0)),

		prefetchStarted:   uint64(max(started, 0)),
		prefetchCompleted: uint64(max(completed, 0)),
		prefetchFailed:    uint64(max(failed, 0)),
		pagesLoaded:       uint64(max(pages, 0)),
		cleanups:          uint64(max(cleanups, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		hits:         delta(prev.hits, cur.hits),
		misses:       delta(prev.misses, cur.misses),
		inserts:      delta(prev.inserts, cur.inserts),
		evictedItems: delta(prev.evictedItems, cur.evictedItems),
		evictedBytes: delta(prev.evictedBytes, cur.evictedBytes),

		pruneScans:  delta(prev.pruneScans, cur.pruneScans),
		pruneHits:   delta(prev.pruneHits, cur.pruneHits),
		prunedItems: delta(prev.prunedItems, cur.prunedItems),
		prunedBytes: delta(prev.prunedBytes, cur.prunedBytes),
		pruneErrors: delta(prev.pruneErrors, cur.pruneErrors),

		prefetchStarted:   delta(prev.prefetchStarted, cur.prefetchStarted),
		prefetchCompleted: delta(prev.prefetchCompleted, cur.prefetchCompleted),
		prefetchFailed:    delta(prev.prefetchFailed, cur.prefetchFailed),
		pagesLoaded:       delta(prev.pagesLoaded, cur.pagesLoaded),
		cleanups:          delta(prev.cleanups, cur.cleanups),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
