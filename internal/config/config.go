package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/spanwin/internal/logging"
)

// Size is a window size in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the effective spanwin configuration.
type Config struct {
	// ContentCommand is the command line that opens the content window.
	ContentCommand string `yaml:"content_command"`
	Fullscreen     bool   `yaml:"fullscreen"`

	// Hotkeys use xgbutil keybind syntax, e.g. "Mod4-Shift-o". Empty disables.
	PlannedHotkey string `yaml:"planned_hotkey"`
	FixedHotkey   string `yaml:"fixed_hotkey"`

	// FixedSize is the window size used by the fixed placement path.
	FixedSize Size `yaml:"fixed_size"`

	WindowTimeoutMs int `yaml:"window_timeout_ms"`

	// LayoutFile replaces host enumeration with a static display layout.
	LayoutFile string `yaml:"layout_file,omitempty"`

	// Provider is one of auto, randr, xinerama, synthesized.
	Provider string `yaml:"provider"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`
}

const (
	DefaultWindowTimeoutMs = 5000
	DefaultFixedWidth      = 2880
	DefaultFixedHeight     = 2560
)

var providers = []string{"auto", "randr", "xinerama", "synthesized"}

func DefaultConfig() *Config {
	return &Config{
		ContentCommand:  "",
		Fullscreen:      false,
		PlannedHotkey:   "Mod4-Shift-o",
		FixedHotkey:     "Mod4-Shift-p",
		FixedSize:       Size{Width: DefaultFixedWidth, Height: DefaultFixedHeight},
		WindowTimeoutMs: DefaultWindowTimeoutMs,
		Provider:        "auto",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// ContentArgs splits ContentCommand into argv.
func (c *Config) ContentArgs() ([]string, error) {
	args, err := shellwords.Parse(c.ContentCommand)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content_command: %w", err)
	}
	return args, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if _, err := c.ContentArgs(); err != nil {
		return &ValidationError{Path: "content_command", Err: err}
	}
	if c.PlannedHotkey != "" && c.PlannedHotkey == c.FixedHotkey {
		return &ValidationError{Path: "fixed_hotkey", Err: fmt.Errorf("fixed_hotkey must differ from planned_hotkey")}
	}
	if c.FixedSize.Width <= 0 {
		return &ValidationError{Path: "fixed_size.width", Err: fmt.Errorf("width must be > 0")}
	}
	if c.FixedSize.Height <= 0 {
		return &ValidationError{Path: "fixed_size.height", Err: fmt.Errorf("height must be > 0")}
	}
	if c.WindowTimeoutMs <= 0 {
		return &ValidationError{Path: "window_timeout_ms", Err: fmt.Errorf("window_timeout_ms must be > 0")}
	}
	if !validProvider(c.Provider) {
		return &ValidationError{Path: "provider", Err: fmt.Errorf("provider must be one of: %s", strings.Join(providers, ", "))}
	}
	if _, err := logging.GetLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: %s", strings.Join(logging.AllLevels, ", "))}
	}
	if _, err := logging.GetFormat(c.LogFormat); err != nil {
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: %s", strings.Join(logging.AllFormats, ", "))}
	}
	return nil
}

// Warnings lists settings that are valid but likely unintended.
func (c *Config) Warnings() []string {
	var warnings []string
	if strings.TrimSpace(c.ContentCommand) == "" {
		warnings = append(warnings, "content_command is empty; open and hotkeys need a command")
	}
	if c.PlannedHotkey == "" && c.FixedHotkey == "" {
		warnings = append(warnings, "no hotkeys configured; the daemon only serves IPC requests")
	}
	if c.LayoutFile != "" && c.Provider != "auto" {
		warnings = append(warnings, fmt.Sprintf("layout_file overrides provider %q", c.Provider))
	}
	return warnings
}

func validProvider(p string) bool {
	for _, v := range providers {
		if p == v {
			return true
		}
	}
	return false
}
