package config

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultMaxEntries        = 10
	defaultMaxBytes          = 250 << 20
	defaultAssetCost         = 8 << 20
	defaultDiskMaxBytes      = 500 << 20
	defaultPruneInterval     = 30 * time.Second
	defaultWindowSize        = 5
	defaultCleanupInterval   = 2 * time.Second
	defaultEventsBuffer      = 64
	defaultPageSize          = 10
	defaultPageThreshold     = 3
	defaultPrefetchRate      = 8
	defaultPrefetchTimeout   = 15 * time.Second
	defaultWarmBytes         = 1 << 20
	defaultTelemetryInterval = 5 * time.Second
)

var (
	ErrInvalidMaxEntries = errors.New("cache.max_entries must not be negative")
	ErrInvalidMaxBytes   = errors.New("cache.max_bytes must not be negative")
	ErrInvalidDiskLimit  = errors.New("disk.max_bytes must not be negative")
	ErrInvalidPageSize   = errors.New("pagination.page_size must be positive")
)

// Default returns the reference configuration: ten resident assets within 250MB,
// a five-item window and a 500MB disk cache under the OS temp directory.
func Default() *Feed {
	cfg := &Feed{
		Cache: CacheCfg{
			MaxEntries:       defaultMaxEntries,
			MaxBytes:         defaultMaxBytes,
			DefaultAssetCost: defaultAssetCost,
		},
		Disk: &DiskCfg{
			Dir:           filepath.Join(os.TempDir(), "ashfeed-media"),
			MaxBytes:      defaultDiskMaxBytes,
			PruneInterval: defaultPruneInterval,
			Watch:         true,
		},
		Window: WindowCfg{Size: defaultWindowSize},
		Controller: ControllerCfg{
			CleanupInterval: defaultCleanupInterval,
			EventsBuffer:    defaultEventsBuffer,
		},
		Pagination: PaginationCfg{
			PageSize:  defaultPageSize,
			Threshold: defaultPageThreshold,
		},
		Prefetch: &PrefetchCfg{
			Rate:    defaultPrefetchRate,
			Timeout: defaultPrefetchTimeout,
		},
		Telemetry: TelemetryCfg{
			LogsInterval: defaultTelemetryInterval,
		},
	}
	cfg.AdjustConfig()
	return cfg
}

// AdjustConfig fills zero values with defaults and normalizes derived fields.
// It never rejects a config; use Validate for that.
func (cfg *Feed) AdjustConfig() {
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = defaultMaxEntries
	}
	if cfg.Cache.MaxBytes == 0 {
		cfg.Cache.MaxBytes = defaultMaxBytes
	}
	if cfg.Cache.DefaultAssetCost <= 0 {
		cfg.Cache.DefaultAssetCost = defaultAssetCost
	}

	if cfg.Disk.Enabled() {
		if cfg.Disk.MaxBytes == 0 {
			cfg.Disk.MaxBytes = defaultDiskMaxBytes
		}
		if cfg.Disk.PruneInterval <= 0 {
			cfg.Disk.PruneInterval = defaultPruneInterval
		}
	}

	if cfg.Window.Size < 1 {
		cfg.Window.Size = defaultWindowSize
	}
	if cfg.Window.Size%2 == 0 {
		cfg.Window.Size++
	}

	if cfg.Controller.CleanupInterval < 0 {
		cfg.Controller.CleanupInterval = 0
	}
	if cfg.Controller.EventsBuffer <= 0 {
		cfg.Controller.EventsBuffer = defaultEventsBuffer
	}

	if cfg.Pagination.PageSize == 0 {
		cfg.Pagination.PageSize = defaultPageSize
	}
	if cfg.Pagination.Threshold <= 0 {
		cfg.Pagination.Threshold = defaultPageThreshold
	}

	if cfg.Prefetch.Enabled() {
		if cfg.Prefetch.Rate <= 0 {
			cfg.Prefetch.Rate = defaultPrefetchRate
		}
		if cfg.Prefetch.Timeout <= 0 {
			cfg.Prefetch.Timeout = defaultPrefetchTimeout
		}
		if cfg.Prefetch.WarmBytes == 0 && cfg.Disk.Enabled() {
			cfg.Prefetch.WarmBytes = defaultWarmBytes
		}
	}

	if cfg.Telemetry.LogsInterval <= 0 {
		cfg.Telemetry.LogsInterval = defaultTelemetryInterval
	}
}

func (cfg *Feed) Validate() error {
	if cfg.Cache.MaxEntries < 0 {
		return ErrInvalidMaxEntries
	}
	if cfg.Cache.MaxBytes < 0 {
		return ErrInvalidMaxBytes
	}
	if cfg.Disk.Enabled() && cfg.Disk.MaxBytes < 0 {
		return ErrInvalidDiskLimit
	}
	if cfg.Pagination.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	return nil
}

func LoadConfig(path string) (*Feed, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Feed
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		cfg = &Feed{}
	}
	cfg.AdjustConfig()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}
