package config

import "time"

type DiskCfg struct {
	// Dir specifies the directory where media files are cached.
	// It is created on start when missing.
	Dir string `yaml:"dir"`

	// MaxBytes is the ceiling enforced by pruning: oldest files are removed
	// until the directory total fits under it.
	MaxBytes Bytes `yaml:"max_bytes"`

	// PruneInterval defines how often the background evictor prunes the directory.
	PruneInterval time.Duration `yaml:"prune_interval"`

	// Watch enables fsnotify-driven pruning: a write into Dir schedules a prune
	// without waiting for the next interval.
	Watch bool `yaml:"watch"`
}

func (cfg *DiskCfg) Enabled() bool {
	return cfg != nil && cfg.Dir != ""
}
