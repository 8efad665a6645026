package config

import "time"

// Feed groups configuration of all feed subsystems.
// Optional components are disabled by leaving their section nil.
type Feed struct {
	// Cache bounds the in-memory asset cache.
	Cache CacheCfg `yaml:"cache"`

	// Disk configures the on-disk media cache directory.
	// If nil, media bytes are never persisted and pruning is a no-op.
	Disk *DiskCfg `yaml:"disk"`

	// Window defines how many feed items stay resident around the visible one.
	Window WindowCfg `yaml:"window"`

	// Controller tunes the scroll controller.
	Controller ControllerCfg `yaml:"feed"`

	// Pagination configures backend page fetches.
	Pagination PaginationCfg `yaml:"pagination"`

	// Prefetch configures neighbor prefetching.
	// If nil, neighbors are never prefetched and only the visible item is loaded.
	Prefetch *PrefetchCfg `yaml:"prefetch"`

	// Telemetry configures periodic stat logs.
	Telemetry TelemetryCfg `yaml:"telemetry"`
}

type ControllerCfg struct {
	// CleanupInterval is the cooldown between two cleanups of entries outside the window.
	// Cleanup is best-effort: a settle inside the cooldown leaves distant entries alone.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// EventsBuffer is the capacity of the user-action events channel.
	// When the channel is full, new events are dropped.
	EventsBuffer int `yaml:"events_buffer"`
}

type PaginationCfg struct {
	// PageSize is the number of items requested per backend page.
	PageSize int `yaml:"page_size"`

	// Threshold is the distance (in items) from the end of the realized list
	// at which the next page is requested.
	Threshold int `yaml:"threshold"`

	// Timeout bounds a single page fetch. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}
