package config

// CacheCfg bounds the in-memory asset cache.
// Both limits are enforced after every insert; the least recently used entry goes first.
type CacheCfg struct {
	// MaxEntries is the entry count ceiling.
	MaxEntries int `yaml:"max_entries"`

	// MaxBytes is the byte-cost ceiling (sum of asset cost estimates).
	MaxBytes Bytes `yaml:"max_bytes"`

	// DefaultAssetCost is charged for an asset whose size is not known yet.
	DefaultAssetCost Bytes `yaml:"default_asset_cost"`
}
