package config

// RawSize mirrors Size with presence tracking.
type RawSize struct {
	Width  *int `yaml:"width"`
	Height *int `yaml:"height"`
}

// RawConfig is the on-disk shape. Pointer fields distinguish an explicit zero
// from an absent key so defaults only fill what the file left out.
type RawConfig struct {
	ContentCommand  *string  `yaml:"content_command"`
	Fullscreen      *bool    `yaml:"fullscreen"`
	PlannedHotkey   *string  `yaml:"planned_hotkey"`
	FixedHotkey     *string  `yaml:"fixed_hotkey"`
	FixedSize       *RawSize `yaml:"fixed_size"`
	WindowTimeoutMs *int     `yaml:"window_timeout_ms"`
	LayoutFile      *string  `yaml:"layout_file"`
	Provider        *string  `yaml:"provider"`
	LogLevel        *string  `yaml:"log_level"`
	LogFormat       *string  `yaml:"log_format"`
	Display         *string  `yaml:"display"`
	XAuthority      *string  `yaml:"xauthority"`
}
