package tray

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

var (
	state   PanelState
	onStart func()
	onExit  func()
	logger  = slog.Default()

	mu         sync.Mutex
	ready      bool
	toggleItem *systray.MenuItem
	hotkeyItem *systray.MenuItem
	quitItem   *systray.MenuItem
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called once the tray is ready; onExitFn when it exits.
func Run(s PanelState, l *slog.Logger, onStartFn, onExitFn func()) {
	state = s
	onStart = onStartFn
	onExit = onExitFn
	if l != nil {
		logger = l.With("component", "tray")
	}
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetIcon(iconData)
	systray.SetTitle("")
	systray.SetTooltip(formatTooltip(false))

	header := systray.AddMenuItem("macpaste", "")
	header.Disable()

	hotkeyItem = systray.AddMenuItem(formatHotkey(""), "")
	hotkeyItem.Disable()

	systray.AddSeparator()

	toggleItem = systray.AddMenuItem(toggleTitle(false), "Show or hide the panel")
	quitItem = systray.AddMenuItem("Quit", "Shut down the macpaste daemon")

	mu.Lock()
	ready = true
	mu.Unlock()

	if onStart != nil {
		onStart()
	}

	if state != nil {
		hotkeyItem.SetTitle(formatHotkey(state.Hotkey()))
		visible, err := state.Visible()
		if err != nil {
			logger.Debug("panel state unavailable", "error", err)
		}
		SetVisible(visible)
	}

	go handleClicks()
}

func onQuit() {
	mu.Lock()
	ready = false
	mu.Unlock()
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-toggleItem.ClickedCh:
			if state == nil {
				continue
			}
			visible, err := state.Toggle()
			if err != nil {
				logger.Warn("toggle from tray failed", "error", err)
				continue
			}
			SetVisible(visible)

		case <-quitItem.ClickedCh:
			if state != nil {
				state.RequestShutdown()
			}
			return
		}
	}
}

// SetVisible updates the menu and tooltip for the panel state. It is a no-op
// before the tray is ready.
func SetVisible(visible bool) {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return
	}
	toggleItem.SetTitle(toggleTitle(visible))
	systray.SetTooltip(formatTooltip(visible))
}

// SetHotkey updates the hotkey hint after a config reload.
func SetHotkey(seq string) {
	mu.Lock()
	defer mu.Unlock()
	if !ready {
		return
	}
	hotkeyItem.SetTitle(formatHotkey(seq))
}

func toggleTitle(visible bool) string {
	if visible {
		return "Hide Panel"
	}
	return "Show Panel"
}

func formatTooltip(visible bool) string {
	if visible {
		return "macpaste - clipboard manager (shown)"
	}
	return "macpaste - clipboard manager (hidden)"
}

func formatHotkey(seq string) string {
	if seq == "" {
		return "Hotkey: none"
	}
	return fmt.Sprintf("Hotkey: %s", seq)
}
