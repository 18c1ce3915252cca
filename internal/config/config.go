package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHotkey      = "Mod4-Shift-v"
	DefaultPanelHeight = 340.0
	// DefaultPanelLevel sits one above the main menu layer, which itself
	// sits above the dock layer.
	DefaultPanelLevel = 25
	DefaultBackground = "#1e1e2ecc"
	DefaultLogLevel   = "info"
	DefaultLogSizeMB  = 10
	DefaultLogFiles   = 3
)

// PanelConfig configures the overlay panel window.
type PanelConfig struct {
	// Height in logical pixels.
	Height           float64 `yaml:"height"`
	Level            int     `yaml:"level"`
	HideOnDeactivate bool    `yaml:"hide_on_deactivate"`
	// Background is #RRGGBB or #RRGGBBAA.
	Background string `yaml:"background"`
}

// DisplayConfig overrides display detection.
type DisplayConfig struct {
	// ScaleFactor overrides the detected physical-to-logical ratio. 0 means
	// auto-detect.
	ScaleFactor float64 `yaml:"scale_factor"`
}

type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DBusConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig configures daemon logging.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// File receives a copy of the log (default: $XDG_STATE_HOME/macpaste/macpaste.log)
	File string `yaml:"file"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files"`
}

// Config is the effective configuration.
type Config struct {
	Hotkey  string        `yaml:"hotkey"`
	Panel   PanelConfig   `yaml:"panel"`
	Display DisplayConfig `yaml:"display"`
	Tray    TrayConfig    `yaml:"tray"`
	DBus    DBusConfig    `yaml:"dbus"`
	Logging LoggingConfig `yaml:"log"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Hotkey: DefaultHotkey,
		Panel: PanelConfig{
			Height:           DefaultPanelHeight,
			Level:            DefaultPanelLevel,
			HideOnDeactivate: true,
			Background:       DefaultBackground,
		},
		Tray:    TrayConfig{Enabled: true},
		DBus:    DBusConfig{Enabled: true},
		Logging: LoggingConfig{Level: DefaultLogLevel, MaxSizeMB: DefaultLogSizeMB, MaxFiles: DefaultLogFiles},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/macpaste/config.yaml, falling
// back to ~/.config.
func DefaultConfigPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, "macpaste", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "macpaste", "config.yaml"), nil
}

// DefaultLogPath returns $XDG_STATE_HOME/macpaste/macpaste.log, falling
// back to ~/.local/state.
func DefaultLogPath() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); dir != "" {
		return filepath.Join(dir, "macpaste", "macpaste.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		// Last resort fallback - use current directory
		home = "."
	}
	return filepath.Join(home, ".local", "state", "macpaste", "macpaste.log")
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{Level: DefaultLogLevel, File: DefaultLogPath(), MaxSizeMB: DefaultLogSizeMB, MaxFiles: DefaultLogFiles}
	}
	cfg := c.Logging
	if cfg.File == "" {
		cfg.File = DefaultLogPath()
	}
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = DefaultLogSizeMB
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = DefaultLogFiles
	}
	return cfg
}

// BackgroundARGB returns the panel background as 0xAARRGGBB.
func (c *Config) BackgroundARGB() uint32 {
	argb, err := ParseColor(c.Panel.Background)
	if err != nil {
		argb, _ = ParseColor(DefaultBackground)
	}
	return argb
}

// ParseColor parses #RGB, #RRGGBB or #RRGGBBAA into 0xAARRGGBB.
func ParseColor(s string) (uint32, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return 0, fmt.Errorf("color %q must start with '#'", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	switch len(hex) {
	case 6:
		hex += "ff"
	case 8:
	default:
		return 0, fmt.Errorf("color %q must be #RGB, #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: invalid hex digits", s)
	}
	rgba := uint32(v)
	return rgba>>8 | rgba<<24, nil
}

// Validate checks the configuration for values the daemon cannot use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hotkey) == "" {
		return &ValidationError{Path: "hotkey", Err: fmt.Errorf("must not be empty")}
	}
	if c.Panel.Height <= 0 {
		return &ValidationError{Path: "panel.height", Err: fmt.Errorf("must be > 0 (got %v)", c.Panel.Height)}
	}
	if c.Panel.Level < 0 {
		return &ValidationError{Path: "panel.level", Err: fmt.Errorf("must be >= 0 (got %d)", c.Panel.Level)}
	}
	if _, err := ParseColor(c.Panel.Background); err != nil {
		return &ValidationError{Path: "panel.background", Err: err}
	}
	if c.Display.ScaleFactor < 0 {
		return &ValidationError{Path: "display.scale_factor", Err: fmt.Errorf("must be >= 0 (got %v)", c.Display.ScaleFactor)}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "log.max_size_mb", Err: fmt.Errorf("must be >= 0 (got %d)", c.Logging.MaxSizeMB)}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "log.max_files", Err: fmt.Errorf("must be >= 0 (got %d)", c.Logging.MaxFiles)}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("unknown level %q (use debug, info, warn, error)", c.Logging.Level)}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ValidationError reports an invalid value, with its file position when
// known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
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
