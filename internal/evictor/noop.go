package evictor

import "time"

// NoOpEvictor is used when the disk cache is disabled.
// It performs no pruning and reports zero metrics.
type NoOpEvictor struct{}

// ForceCall does nothing and returns nil immediately.
func (NoOpEvictor) ForceCall(timeout time.Duration) error {
	return nil
}

// Metrics always returns zero values.
func (NoOpEvictor) Metrics() (scans, hits, evictedItems, evictedBytes, errs int64) {
	return 0, 0, 0, 0, 0
}

// Close does nothing and returns nil.
func (NoOpEvictor) Close() error {
	return nil
}
