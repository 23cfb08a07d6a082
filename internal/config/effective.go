package config

import (
	"fmt"
	"strings"
)

// Source locates a key in a config file.
type Source struct {
	File   string
	Line   int
	Column int
}

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig overlays raw onto the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.ContentCommand != nil {
		cfg.ContentCommand = strings.TrimSpace(*raw.ContentCommand)
	}
	if raw.Fullscreen != nil {
		cfg.Fullscreen = *raw.Fullscreen
	}
	if raw.PlannedHotkey != nil {
		cfg.PlannedHotkey = strings.TrimSpace(*raw.PlannedHotkey)
	}
	if raw.FixedHotkey != nil {
		cfg.FixedHotkey = strings.TrimSpace(*raw.FixedHotkey)
	}
	if raw.FixedSize != nil {
		if raw.FixedSize.Width != nil {
			cfg.FixedSize.Width = *raw.FixedSize.Width
		}
		if raw.FixedSize.Height != nil {
			cfg.FixedSize.Height = *raw.FixedSize.Height
		}
	}
	if raw.WindowTimeoutMs != nil {
		cfg.WindowTimeoutMs = *raw.WindowTimeoutMs
	}
	if raw.LayoutFile != nil {
		path, err := expandHome(strings.TrimSpace(*raw.LayoutFile))
		if err != nil {
			return nil, &ValidationError{Path: "layout_file", Err: err}
		}
		cfg.LayoutFile = path
	}
	if raw.Provider != nil {
		cfg.Provider = strings.ToLower(strings.TrimSpace(*raw.Provider))
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(*raw.LogFormat))
	}
	if raw.Display != nil {
		cfg.Display = strings.TrimSpace(*raw.Display)
	}
	if raw.XAuthority != nil {
		path, err := expandHome(strings.TrimSpace(*raw.XAuthority))
		if err != nil {
			return nil, &ValidationError{Path: "xauthority", Err: err}
		}
		cfg.XAuthority = path
	}

	return cfg, nil
}
