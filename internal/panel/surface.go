package panel

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/macpaste/macpaste/internal/platform"
)

// DefaultLabel names the panel surface.
const DefaultLabel = "panel"

// Options configures the panel surface.
type Options struct {
	Label            string
	Title            string
	Class            string
	Height           float64 // logical pixels
	Level            platform.Level
	HideOnDeactivate bool
	Background       uint32 // 0xAARRGGBB
}

// DefaultOptions returns the stock panel configuration.
func DefaultOptions() Options {
	return Options{
		Label:            DefaultLabel,
		Title:            "macpaste",
		Class:            "macpaste",
		Height:           DefaultHeight,
		Level:            platform.LevelAboveDock,
		HideOnDeactivate: true,
		Background:       0xcc1e1e2e,
	}
}

// Surface owns the single panel window. It exposes raw show and hide
// primitives and leaves show/hide policy to Controller. A Surface is not
// safe for concurrent use; it belongs to the UI thread.
type Surface struct {
	backend platform.Backend
	opts    Options
	logger  *slog.Logger

	id        platform.WindowID
	created   bool
	destroyed bool
	current   Geometry
	placed  bool

	autoHideHooks []func()
}

// NewSurface returns an uncreated surface.
func NewSurface(backend platform.Backend, opts Options, logger *slog.Logger) *Surface {
	if opts.Label == "" {
		opts.Label = DefaultLabel
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Surface{
		backend: backend,
		opts:    opts,
		logger:  logger.With("surface", opts.Label),
	}
}

// Label returns the surface identity.
func (s *Surface) Label() string {
	return s.opts.Label
}

// Options returns the surface configuration.
func (s *Surface) Options() Options {
	return s.opts
}

// SetHeight changes the panel height. It takes effect on the next
// Reposition.
func (s *Surface) SetHeight(height float64) {
	if height <= 0 {
		height = DefaultHeight
	}
	s.opts.Height = height
}

// OnAutoHide registers fn to run whenever the platform hides the panel by
// itself because another window became active.
func (s *Surface) OnAutoHide(fn func()) {
	s.autoHideHooks = append(s.autoHideHooks, fn)
}

// Create builds the hidden panel window on the resolved display and
// converts it to a floating panel. It may only succeed once per Surface,
// even after Destroy.
func (s *Surface) Create() error {
	if s.created || s.destroyed {
		return fmt.Errorf("%w: %q", ErrAlreadyCreated, s.opts.Label)
	}

	geom := Geometry{Width: 1, Height: s.opts.Height}
	scale := 1.0
	if d, ok := s.resolveDisplay(); ok {
		geom = Compute(d, s.opts.Height)
		scale = d.ScaleFactor
	} else {
		s.logger.Warn("no display resolved, creating panel at placeholder geometry")
	}

	id, err := s.backend.CreateWindow(platform.WindowSpec{
		Title:       s.opts.Title,
		Class:       s.opts.Class,
		Bounds:      geom.Physical(scale),
		Background:  s.opts.Background,
		Borderless:  true,
		Transparent: true,
		Resizable:   false,
		AlwaysOnTop: true,
		SkipTaskbar: true,
	})
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrCreate, s.opts.Label, err)
	}

	err = s.backend.PromoteToPanel(id, platform.PanelSpec{
		Level:            s.opts.Level,
		HideOnDeactivate: s.opts.HideOnDeactivate,
		OnAutoHide:       s.autoHidden,
	})
	if err != nil {
		if derr := s.backend.Destroy(id); derr != nil {
			s.logger.Warn("failed to destroy window after promote failure", "error", derr)
		}
		return fmt.Errorf("%w %q: %v", ErrPromote, s.opts.Label, err)
	}

	s.id = id
	s.created = true
	s.current = geom
	s.placed = true
	s.logger.Info("panel created",
		"window", uint32(id),
		"x", geom.X, "y", geom.Y, "width", geom.Width, "height", geom.Height,
		"level", int(s.opts.Level))
	return nil
}

// Reposition moves the panel onto the currently resolved display. When no
// display resolves it leaves the panel where it is and reports false.
func (s *Surface) Reposition() (bool, error) {
	if err := s.ensure(); err != nil {
		return false, err
	}

	d, ok := s.resolveDisplay()
	if !ok {
		s.logger.Warn("no display resolved, keeping last geometry")
		return false, nil
	}

	geom := Compute(d, s.opts.Height)
	if err := s.backend.SetGeometry(s.id, geom.Physical(d.ScaleFactor)); err != nil {
		return false, s.wrap("reposition", err)
	}
	s.current = geom
	s.placed = true
	s.logger.Debug("panel repositioned",
		"display", d.Name,
		"x", geom.X, "y", geom.Y, "width", geom.Width, "height", geom.Height)
	return true, nil
}

// Geometry returns the last geometry applied to the window.
func (s *Surface) Geometry() (Geometry, bool) {
	return s.current, s.placed && s.created
}

// RaiseAndFocus puts the panel on screen and gives it keyboard focus.
func (s *Surface) RaiseAndFocus() error {
	if err := s.ensure(); err != nil {
		return err
	}
	if err := s.backend.RaiseAndFocus(s.id); err != nil {
		return s.wrap("show", err)
	}
	return nil
}

// OrderOut takes the panel off screen.
func (s *Surface) OrderOut() error {
	if err := s.ensure(); err != nil {
		return err
	}
	if err := s.backend.OrderOut(s.id); err != nil {
		return s.wrap("hide", err)
	}
	return nil
}

// Visible queries the window system for the panel's visibility.
func (s *Surface) Visible() (bool, error) {
	if err := s.ensure(); err != nil {
		return false, err
	}
	visible, err := s.backend.IsVisible(s.id)
	if err != nil {
		return false, s.wrap("query visibility", err)
	}
	return visible, nil
}

// Destroy tears the window down. Later operations fail with
// ErrSurfaceNotFound. When the backend refuses, the surface keeps the
// window and Destroy can be retried.
func (s *Surface) Destroy() error {
	if err := s.ensure(); err != nil {
		return err
	}
	if err := s.backend.Destroy(s.id); err != nil {
		if errors.Is(err, platform.ErrUnknownWindow) {
			s.forget()
		}
		return s.wrap("destroy", err)
	}
	s.forget()
	s.logger.Info("panel destroyed")
	return nil
}

func (s *Surface) forget() {
	s.created = false
	s.destroyed = true
	s.placed = false
	s.id = 0
}

func (s *Surface) resolveDisplay() (Display, bool) {
	displays, err := s.backend.Displays()
	if err != nil {
		s.logger.Warn("failed to enumerate displays", "error", err)
		return Display{}, false
	}
	return ResolvePrimary(displays)
}

func (s *Surface) autoHidden() {
	s.logger.Debug("panel hidden on deactivation")
	for _, fn := range s.autoHideHooks {
		fn()
	}
}

func (s *Surface) ensure() error {
	if !s.created {
		return fmt.Errorf("%w: %q", ErrSurfaceNotFound, s.opts.Label)
	}
	return nil
}

func (s *Surface) wrap(op string, err error) error {
	if errors.Is(err, platform.ErrUnknownWindow) {
		return fmt.Errorf("%s: %w: %q: %w", op, ErrSurfaceNotFound, s.opts.Label, err)
	}
	return fmt.Errorf("%s panel %q: %w", op, s.opts.Label, err)
}
