package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	hotkey
//	panel.height
//	panel.level
//	panel.hide_on_deactivate
//	panel.background
//	display.scale_factor
//	tray.enabled
//	dbus.enabled
//	log.level
//	log.file
//	log.max_size_mb
//	log.max_files
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// Paths lists every path accepted by Explain.
func Paths() []string {
	return []string{
		"hotkey",
		"panel.height",
		"panel.level",
		"panel.hide_on_deactivate",
		"panel.background",
		"display.scale_factor",
		"tray.enabled",
		"dbus.enabled",
		"log.level",
		"log.file",
		"log.max_size_mb",
		"log.max_files",
	}
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "hotkey":
		return cfg.Hotkey, nil
	case "panel.height":
		return cfg.Panel.Height, nil
	case "panel.level":
		return cfg.Panel.Level, nil
	case "panel.hide_on_deactivate":
		return cfg.Panel.HideOnDeactivate, nil
	case "panel.background":
		return cfg.Panel.Background, nil
	case "display.scale_factor":
		return cfg.Display.ScaleFactor, nil
	case "tray.enabled":
		return cfg.Tray.Enabled, nil
	case "dbus.enabled":
		return cfg.DBus.Enabled, nil
	case "log.level":
		return cfg.Logging.Level, nil
	case "log.file":
		return cfg.Logging.File, nil
	case "log.max_size_mb":
		return cfg.Logging.MaxSizeMB, nil
	case "log.max_files":
		return cfg.Logging.MaxFiles, nil
	}
	return nil, fmt.Errorf("unknown config path %q", path)
}
