package cache

type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictCost     EvictReason = "cost"
	EvictFailed   EvictReason = "failed"
	EvictPurge    EvictReason = "purge"
	EvictRemoved  EvictReason = "removed"
)

// Metrics receives cache events. Implementations must be safe for concurrent use
// and must not call back into the cache.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, cost int64)
}

type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(int, int64)   {}
