// Package tray implements the system tray icon and menu for the daemon.
package tray

// PanelState is what the tray menu needs from the daemon. Methods are
// called from the tray's click goroutine.
type PanelState interface {
	Toggle() (bool, error)
	Visible() (bool, error)
	Hotkey() string
	RequestShutdown()
}
