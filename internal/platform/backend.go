package platform

import "errors"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangular region in physical screen pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Size is a width/height pair in physical pixels.
type Size struct {
	Width  int
	Height int
}

// Point is a position in physical pixels.
type Point struct {
	X int
	Y int
}

// Display describes a physical display as reported by the window system.
// Size and Origin are physical pixels; ScaleFactor converts them to
// logical units and is always > 0 for displays returned by a Backend.
type Display struct {
	ID          int
	Name        string
	Size        Size
	Origin      Point
	ScaleFactor float64
	Primary     bool
}

// Level is a z-order layer. Higher levels stack above lower ones.
type Level int

const (
	LevelNormal    Level = 0
	LevelDock      Level = 20
	LevelMainMenu  Level = 24
	LevelAboveDock Level = LevelMainMenu + 1
)

// WindowSpec describes a window to be created. The window is always
// created unmapped.
type WindowSpec struct {
	Title       string
	Class       string
	Bounds      Rect
	Background  uint32 // 0xAARRGGBB
	Borderless  bool
	Transparent bool
	Resizable   bool
	AlwaysOnTop bool
	SkipTaskbar bool
}

// PanelSpec describes how a window is promoted to a floating panel.
type PanelSpec struct {
	Level Level
	// HideOnDeactivate orders the panel out as soon as another window
	// becomes active.
	HideOnDeactivate bool
	// OnAutoHide is called after the backend hid the panel on its own.
	OnAutoHide func()
}

// ErrUnknownWindow is returned for operations on a window the backend does
// not know about (never created or already destroyed).
var ErrUnknownWindow = errors.New("unknown window")

// Backend abstracts the windowing capabilities the panel needs.
type Backend interface {
	Displays() ([]Display, error)
	CreateWindow(spec WindowSpec) (WindowID, error)
	PromoteToPanel(id WindowID, spec PanelSpec) error
	SetGeometry(id WindowID, bounds Rect) error
	// RaiseAndFocus maps the window, stacks it on top and makes it the
	// keyboard focus window.
	RaiseAndFocus(id WindowID) error
	// OrderOut removes the window from screen without handing focus to
	// another window of this application.
	OrderOut(id WindowID) error
	IsVisible(id WindowID) (bool, error)
	Destroy(id WindowID) error
}

// AppInspector is implemented by backends that can name the application
// owning the active window.
type AppInspector interface {
	FrontmostApp() string
}

// ScaleOverrider is implemented by backends whose display scale can be
// forced from configuration. A scale <= 0 restores detection.
type ScaleOverrider interface {
	SetScaleOverride(scale float64)
}

// UnknownApp is reported when the frontmost application cannot be named.
const UnknownApp = "Unknown App"
