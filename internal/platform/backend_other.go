//go:build !linux

package platform

import "log/slog"

// NewDefaultBackend returns a NullBackend reporting a single 1920x1080
// display. Panel operations succeed without touching the screen.
func NewDefaultBackend(scale float64) (*NullBackend, error) {
	if scale <= 0 {
		scale = 1
	}
	slog.Warn("no native window backend for this platform, panel is not drawn")
	return NewNullBackend(Display{
		Name:        "virtual",
		Size:        Size{Width: 1920, Height: 1080},
		ScaleFactor: scale,
		Primary:     true,
	}), nil
}
