package x11

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowOptions describes a top-level window created by CreateWindow.
// Geometry is in physical pixels.
type WindowOptions struct {
	Title       string
	Instance    string
	Class       string
	X           int
	Y           int
	Width       int
	Height      int
	Background  uint32 // 0xAARRGGBB
	Borderless  bool
	Transparent bool
	Resizable   bool
	SkipTaskbar bool
}

// Window is a top-level window owned by this client.
type Window struct {
	ID       xproto.Window
	colormap xproto.Colormap
}

// CreateWindow creates an unmapped, WM-managed top-level window. A 32-bit
// ARGB visual is used when transparency is requested and the screen offers
// one.
func (c *Connection) CreateWindow(opts WindowOptions) (*Window, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate window id: %w", err)
	}

	depth := screen.RootDepth
	visual := screen.RootVisual
	background := opts.Background | 0xff000000
	var colormap xproto.Colormap

	if opts.Transparent {
		if argb, ok := argbVisual(screen); ok {
			colormap, err = xproto.NewColormapId(conn)
			if err != nil {
				return nil, fmt.Errorf("failed to allocate colormap id: %w", err)
			}
			if err := xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, colormap, c.Root, argb).Check(); err != nil {
				return nil, fmt.Errorf("failed to create ARGB colormap: %w", err)
			}
			depth = 32
			visual = argb
			background = Premultiply(opts.Background)
		}
	}

	// Value order must follow mask bit order.
	mask := uint32(xproto.CwBackPixel | xproto.CwBorderPixel | xproto.CwEventMask)
	values := []uint32{
		background,
		0,
		uint32(xproto.EventMaskStructureNotify | xproto.EventMaskFocusChange | xproto.EventMaskPropertyChange),
	}
	if colormap != 0 {
		mask |= xproto.CwColormap
		values = append(values, uint32(colormap))
	}

	err = xproto.CreateWindowChecked(
		conn,
		depth,
		wid,
		c.Root,
		int16(opts.X), int16(opts.Y),
		clampDim(opts.Width), clampDim(opts.Height),
		0,
		xproto.WindowClassInputOutput,
		visual,
		mask,
		values,
	).Check()
	if err != nil {
		if colormap != 0 {
			xproto.FreeColormap(conn, colormap)
		}
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	win := &Window{ID: wid, colormap: colormap}
	if err := c.setWindowProperties(win, opts); err != nil {
		c.DestroyWindow(win)
		return nil, err
	}
	return win, nil
}

func (c *Connection) setWindowProperties(win *Window, opts WindowOptions) error {
	xu := c.XUtil

	if err := ewmh.WmNameSet(xu, win.ID, opts.Title); err != nil {
		return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
	}
	if err := icccm.WmNameSet(xu, win.ID, opts.Title); err != nil {
		return fmt.Errorf("failed to set WM_NAME: %w", err)
	}
	if err := icccm.WmClassSet(xu, win.ID, &icccm.WmClass{Instance: opts.Instance, Class: opts.Class}); err != nil {
		return fmt.Errorf("failed to set WM_CLASS: %w", err)
	}
	if err := icccm.WmHintsSet(xu, win.ID, &icccm.Hints{Flags: icccm.HintInput, Input: 1}); err != nil {
		return fmt.Errorf("failed to set WM_HINTS: %w", err)
	}
	if err := ewmh.WmPidSet(xu, win.ID, uint(os.Getpid())); err != nil {
		return fmt.Errorf("failed to set _NET_WM_PID: %w", err)
	}

	if opts.Borderless {
		hints := &motif.Hints{Flags: motif.HintDecorations, Decoration: motif.DecorationNone}
		if err := motif.WmHintsSet(xu, win.ID, hints); err != nil {
			return fmt.Errorf("failed to set _MOTIF_WM_HINTS: %w", err)
		}
	}

	if err := c.setSizeHints(win.ID, opts.X, opts.Y, opts.Width, opts.Height, opts.Resizable); err != nil {
		return err
	}

	if opts.SkipTaskbar {
		states := []string{"_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER", "_NET_WM_STATE_STICKY"}
		if err := ewmh.WmStateSet(xu, win.ID, states); err != nil {
			return fmt.Errorf("failed to set _NET_WM_STATE: %w", err)
		}
	}
	return nil
}

// setSizeHints pins the window position and, unless resizable, its size.
func (c *Connection) setSizeHints(wid xproto.Window, x, y, width, height int, resizable bool) error {
	hints := &icccm.NormalHints{
		Flags:  icccm.SizeHintUSPosition | icccm.SizeHintUSSize | icccm.SizeHintPPosition | icccm.SizeHintPSize,
		X:      x,
		Y:      y,
		Width:  uint(max(width, 1)),
		Height: uint(max(height, 1)),
	}
	if !resizable {
		hints.Flags |= icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize
		hints.MinWidth, hints.MaxWidth = hints.Width, hints.Width
		hints.MinHeight, hints.MaxHeight = hints.Height, hints.Height
	}
	if err := icccm.WmNormalHintsSet(c.XUtil, wid, hints); err != nil {
		return fmt.Errorf("failed to set WM_NORMAL_HINTS: %w", err)
	}
	return nil
}

// PromotePanel gives a window utility-panel semantics. When above is set
// the window is kept above docks and normal windows.
func (c *Connection) PromotePanel(win *Window, above bool) error {
	xu := c.XUtil
	if err := ewmh.WmWindowTypeSet(xu, win.ID, []string{"_NET_WM_WINDOW_TYPE_UTILITY"}); err != nil {
		return fmt.Errorf("failed to set _NET_WM_WINDOW_TYPE: %w", err)
	}
	if !above {
		return nil
	}

	states, err := ewmh.WmStateGet(xu, win.ID)
	if err != nil {
		states = nil
	}
	for _, s := range states {
		if s == "_NET_WM_STATE_ABOVE" {
			return nil
		}
	}
	states = append(states, "_NET_WM_STATE_ABOVE")
	if err := ewmh.WmStateSet(xu, win.ID, states); err != nil {
		return fmt.Errorf("failed to set _NET_WM_STATE_ABOVE: %w", err)
	}
	return nil
}

// MoveResize applies a new physical geometry to a window owned by this
// client. Size hints are updated first so fixed-size windows accept it.
func (c *Connection) MoveResize(win *Window, x, y, width, height int, resizable bool) error {
	if err := c.setSizeHints(win.ID, x, y, width, height, resizable); err != nil {
		return err
	}

	mask := uint16(xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight)
	values := []uint32{
		uint32(int32(x)),
		uint32(int32(y)),
		uint32(clampDim(width)),
		uint32(clampDim(height)),
	}
	if err := xproto.ConfigureWindowChecked(c.XUtil.Conn(), win.ID, mask, values).Check(); err != nil {
		return fmt.Errorf("failed to move window: %w", err)
	}
	return nil
}

// MapRaise maps a window and stacks it on top. Under a window manager the
// map is redirected, so the window may not be viewable when this returns.
func (c *Connection) MapRaise(win *Window) error {
	conn := c.XUtil.Conn()
	if err := xproto.MapWindowChecked(conn, win.ID).Check(); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	if err := xproto.ConfigureWindowChecked(
		conn,
		win.ID,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check(); err != nil {
		return fmt.Errorf("failed to raise window: %w", err)
	}
	return nil
}

// Focus asks the window manager to activate a window and sets the input
// focus directly. The window must be viewable.
func (c *Connection) Focus(win *Window) error {
	focusErr := c.FocusWindow(uint32(win.ID))
	inputErr := xproto.SetInputFocusChecked(c.XUtil.Conn(), xproto.InputFocusParent, win.ID, xproto.TimeCurrentTime).Check()
	if focusErr != nil && inputErr != nil {
		return fmt.Errorf("failed to focus window: %w", errors.Join(focusErr, inputErr))
	}
	return nil
}

// OnMapStateChange calls onMap and onUnmap when the server reports the
// window mapped or unmapped. Callbacks run on the X event goroutine.
func (c *Connection) OnMapStateChange(win *Window, onMap, onUnmap func()) {
	xevent.MapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
		onMap()
	}).Connect(c.XUtil, win.ID)
	xevent.UnmapNotifyFun(func(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
		onUnmap()
	}).Connect(c.XUtil, win.ID)
}

// Unmap withdraws a window from the screen.
func (c *Connection) Unmap(win *Window) error {
	if err := xproto.UnmapWindowChecked(c.XUtil.Conn(), win.ID).Check(); err != nil {
		return fmt.Errorf("failed to unmap window: %w", err)
	}
	return nil
}

// IsViewable reports whether the window is mapped and all its ancestors
// are mapped.
func (c *Connection) IsViewable(win *Window) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win.ID).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to query window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// DestroyWindow destroys a window and frees its colormap.
func (c *Connection) DestroyWindow(win *Window) error {
	conn := c.XUtil.Conn()
	xevent.Detach(c.XUtil, win.ID)
	err := xproto.DestroyWindowChecked(conn, win.ID).Check()
	if win.colormap != 0 {
		xproto.FreeColormap(conn, win.colormap)
		win.colormap = 0
	}
	if err != nil {
		return fmt.Errorf("failed to destroy window: %w", err)
	}
	return nil
}

// OnActiveWindowChange calls fn with the new active window every time
// _NET_ACTIVE_WINDOW changes on the root window. fn runs on the X event
// goroutine.
func (c *Connection) OnActiveWindowChange(fn func(active xproto.Window)) error {
	activeAtom, err := xprop.Atm(c.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}
	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to listen on root window: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom != activeAtom {
			return
		}
		active, err := ewmh.ActiveWindowGet(xu)
		if err != nil {
			return
		}
		fn(active)
	}).Connect(c.XUtil, c.Root)
	return nil
}

// Premultiply converts a straight-alpha 0xAARRGGBB color to the
// premultiplied pixel value expected by ARGB visuals.
func Premultiply(argb uint32) uint32 {
	a := argb >> 24
	r := (argb >> 16) & 0xff
	g := (argb >> 8) & 0xff
	b := argb & 0xff
	r = r * a / 255
	g = g * a / 255
	b = b * a / 255
	return a<<24 | r<<16 | g<<8 | b
}

func argbVisual(screen *xproto.ScreenInfo) (xproto.Visualid, bool) {
	for _, d := range screen.AllowedDepths {
		if d.Depth != 32 {
			continue
		}
		for _, v := range d.Visuals {
			if v.Class == xproto.VisualClassTrueColor {
				return v.VisualId, true
			}
		}
	}
	return 0, false
}

func clampDim(v int) uint16 {
	if v < 1 {
		return 1
	}
	if v > 0xffff {
		return 0xffff
	}
	return uint16(v)
}
