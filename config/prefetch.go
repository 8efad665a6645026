package config

import "time"

type PrefetchCfg struct {
	// Rate limits how many prefetch loads may start per second.
	Rate int `yaml:"rate"`

	// Timeout bounds a single prefetch load.
	Timeout time.Duration `yaml:"timeout"`

	// WarmBytes is the size of the media prefix written into the disk cache
	// by a prefetch. Zero means 1MB when the disk cache is enabled; a negative
	// value disables warming and only the probe is performed.
	WarmBytes Bytes `yaml:"warm_bytes"`
}

func (cfg *PrefetchCfg) Enabled() bool {
	return cfg != nil
}
