package testutil

import (
	"github.com/Borislavv/go-ash-feed/config"
	"testing"
	"time"
)

// Cfg returns a small feed config with the disk cache rooted in a test temp dir.
func Cfg(t testing.TB) *config.Feed {
	t.Helper()
	c := &config.Feed{
		Cache: config.CacheCfg{
			MaxEntries:       10,
			MaxBytes:         250 * config.MB,
			DefaultAssetCost: 1 * config.MB,
		},
		Disk: &config.DiskCfg{
			Dir:           t.TempDir(),
			MaxBytes:      4 * config.MB,
			PruneInterval: time.Hour,
		},
		Window: config.WindowCfg{Size: 5},
		Controller: config.ControllerCfg{
			CleanupInterval: 2 * time.Second,
			EventsBuffer:    16,
		},
		Pagination: config.PaginationCfg{
			PageSize:  10,
			Threshold: 3,
			Timeout:   time.Second,
		},
		Prefetch: &config.PrefetchCfg{
			Rate:      1000,
			Timeout:   time.Second,
			WarmBytes: 1 * config.KB,
		},
		Telemetry: config.TelemetryCfg{
			LogsInterval: time.Hour,
		},
	}
	c.AdjustConfig()
	return c
}

// MemoryOnlyCfg is Cfg without disk cache and prefetch.
func MemoryOnlyCfg(t testing.TB) *config.Feed {
	c := Cfg(t)
	c.Disk = nil
	c.Prefetch = nil
	return c
}
