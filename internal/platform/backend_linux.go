//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/macpaste/macpaste/internal/x11"
)

// LinuxBackend implements Backend on top of an X11 connection. All methods
// must be called from the thread running the X event loop.
type LinuxBackend struct {
	conn          *x11.Connection
	scaleOverride float64
	windows       map[WindowID]*linuxWindow
	watching      bool
}

type linuxWindow struct {
	win       *x11.Window
	resizable bool
	panel     *PanelSpec
	state     mapTracker
}

var (
	_ Backend        = (*LinuxBackend)(nil)
	_ AppInspector   = (*LinuxBackend)(nil)
	_ ScaleOverrider = (*LinuxBackend)(nil)
)

// NewLinuxBackend creates a Linux platform backend from an existing X11
// connection. A positive scale overrides the detected screen scale factor.
func NewLinuxBackend(conn *x11.Connection, scale float64) *LinuxBackend {
	return &LinuxBackend{
		conn:          conn,
		scaleOverride: scale,
		windows:       make(map[WindowID]*linuxWindow),
	}
}

// NewDefaultBackend opens a fresh X11 connection and wraps it.
func NewDefaultBackend(scale float64) (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn, scale), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// SetScaleOverride replaces the configured scale factor. A scale <= 0
// restores detection from the X resource database.
func (b *LinuxBackend) SetScaleOverride(scale float64) {
	b.scaleOverride = scale
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// Displays returns all active displays. The scale factor is read from the
// server on every call.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	scale := b.scaleOverride
	if scale <= 0 {
		scale = conn.ScaleFactor()
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, displayFromMonitor(m, scale))
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

func (b *LinuxBackend) CreateWindow(spec WindowSpec) (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	win, err := conn.CreateWindow(x11.WindowOptions{
		Title:       spec.Title,
		Instance:    spec.Class,
		Class:       spec.Class,
		X:           spec.Bounds.X,
		Y:           spec.Bounds.Y,
		Width:       spec.Bounds.Width,
		Height:      spec.Bounds.Height,
		Background:  spec.Background,
		Borderless:  spec.Borderless,
		Transparent: spec.Transparent,
		Resizable:   spec.Resizable,
		SkipTaskbar: spec.SkipTaskbar,
	})
	if err != nil {
		return 0, err
	}

	if spec.AlwaysOnTop {
		if err := conn.PromotePanel(win, true); err != nil {
			_ = conn.DestroyWindow(win)
			return 0, err
		}
	}

	id := WindowID(win.ID)
	w := &linuxWindow{win: win, resizable: spec.Resizable}
	b.windows[id] = w
	conn.OnMapStateChange(win, func() { b.mapped(w) }, w.state.unmapped)
	return id, nil
}

// PromoteToPanel marks the window as a utility panel. Levels above the dock
// keep it above docks; HideOnDeactivate unmaps it whenever another window
// becomes active.
func (b *LinuxBackend) PromoteToPanel(id WindowID, spec PanelSpec) error {
	conn, w, err := b.window(id)
	if err != nil {
		return err
	}

	if err := conn.PromotePanel(w.win, spec.Level > LevelDock); err != nil {
		return err
	}
	w.panel = &spec

	if spec.HideOnDeactivate && !b.watching {
		if err := conn.OnActiveWindowChange(b.activeWindowChanged); err != nil {
			return err
		}
		b.watching = true
	}
	return nil
}

func (b *LinuxBackend) SetGeometry(id WindowID, bounds Rect) error {
	conn, w, err := b.window(id)
	if err != nil {
		return err
	}
	return conn.MoveResize(w.win, bounds.X, bounds.Y, bounds.Width, bounds.Height, w.resizable)
}

func (b *LinuxBackend) RaiseAndFocus(id WindowID) error {
	conn, w, err := b.window(id)
	if err != nil {
		return err
	}
	viewable, err := conn.IsViewable(w.win)
	if err != nil {
		return err
	}
	if err := conn.MapRaise(w.win); err != nil {
		return err
	}
	if w.state.requestMap(viewable) {
		return conn.Focus(w.win)
	}
	return nil
}

func (b *LinuxBackend) OrderOut(id WindowID) error {
	conn, w, err := b.window(id)
	if err != nil {
		return err
	}
	return b.unmap(conn, w)
}

// IsVisible reports the requested state until the server confirms it.
func (b *LinuxBackend) IsVisible(id WindowID) (bool, error) {
	conn, w, err := b.window(id)
	if err != nil {
		return false, err
	}
	viewable, err := conn.IsViewable(w.win)
	if err != nil {
		return false, err
	}
	return w.state.visible(viewable), nil
}

func (b *LinuxBackend) unmap(conn *x11.Connection, w *linuxWindow) error {
	viewable, err := conn.IsViewable(w.win)
	if err != nil {
		return err
	}
	if err := conn.Unmap(w.win); err != nil {
		return err
	}
	w.state.requestUnmap(viewable)
	return nil
}

// mapped runs on the X event goroutine when the window manager mapped w.
func (b *LinuxBackend) mapped(w *linuxWindow) {
	focus, unmapAgain := w.state.mapped()
	switch {
	case unmapAgain:
		if err := b.unmap(b.conn, w); err != nil {
			slog.Debug("failed to withdraw late-mapped panel", "error", err)
		}
	case focus:
		if err := b.conn.Focus(w.win); err != nil {
			slog.Debug("failed to focus panel after map", "error", err)
		}
	}
}

func (b *LinuxBackend) Destroy(id WindowID) error {
	conn, w, err := b.window(id)
	if err != nil {
		return err
	}
	delete(b.windows, id)
	return conn.DestroyWindow(w.win)
}

// FrontmostApp names the application owning the active window.
func (b *LinuxBackend) FrontmostApp() string {
	conn, err := b.connection()
	if err != nil {
		return UnknownApp
	}
	active, err := conn.ActiveWindow()
	if err != nil || active == 0 {
		return UnknownApp
	}
	if _, ours := b.windows[WindowID(active)]; ours {
		return UnknownApp
	}
	if name := conn.AppName(active); name != "" {
		return name
	}
	return UnknownApp
}

// activeWindowChanged runs on the X event goroutine.
func (b *LinuxBackend) activeWindowChanged(active xproto.Window) {
	if active == 0 {
		return
	}
	if _, ours := b.windows[WindowID(active)]; ours {
		return
	}

	for _, w := range b.windows {
		if w.panel == nil || !w.panel.HideOnDeactivate {
			continue
		}
		viewable, err := b.conn.IsViewable(w.win)
		if err != nil || !w.state.visible(viewable) {
			continue
		}
		if err := b.unmap(b.conn, w); err != nil {
			continue
		}
		if w.panel.OnAutoHide != nil {
			w.panel.OnAutoHide()
		}
	}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func (b *LinuxBackend) window(id WindowID) (*x11.Connection, *linuxWindow, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, nil, err
	}
	w, ok := b.windows[id]
	if !ok {
		return nil, nil, fmt.Errorf("window %#x: %w", uint32(id), ErrUnknownWindow)
	}
	return conn, w, nil
}

func displayFromMonitor(m x11.Monitor, scale float64) Display {
	return Display{
		ID:          m.ID,
		Name:        m.Name,
		Size:        Size{Width: m.Width, Height: m.Height},
		Origin:      Point{X: m.X, Y: m.Y},
		ScaleFactor: scale,
		Primary:     m.Primary,
	}
}
