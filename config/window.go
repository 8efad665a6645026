package config

type WindowCfg struct {
	// Size is the number of items kept resident around the visible one.
	// It must be odd so the visible item sits exactly in the middle;
	// an even value is rounded up during AdjustConfig.
	Size int `yaml:"size"`
}
