package panel

import "log/slog"

// Controller implements show/hide/toggle on top of a Surface. Visibility is
// always read from the window system, never cached, because the panel can
// be hidden behind the controller's back when another window is
// activated. Like Surface, a Controller belongs to the UI thread.
type Controller struct {
	surface *Surface
	logger  *slog.Logger

	beforeShow []func()
	listeners  []func(visible bool)
}

// NewController returns a controller for surface. The surface may be
// created before or after this call.
func NewController(surface *Surface, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{surface: surface, logger: logger}
	surface.OnAutoHide(func() { c.notify(false) })
	return c
}

// Surface returns the controlled surface.
func (c *Controller) Surface() *Surface {
	return c.surface
}

// BeforeShow registers fn to run when a hidden panel is about to be shown,
// while the previously active window still has focus.
func (c *Controller) BeforeShow(fn func()) {
	c.beforeShow = append(c.beforeShow, fn)
}

// OnChange registers fn to run after every visibility change, including
// hides performed by the window system.
func (c *Controller) OnChange(fn func(visible bool)) {
	c.listeners = append(c.listeners, fn)
}

// Show repositions the panel on the current display, raises it and gives it
// keyboard focus. Showing a visible panel repositions and refocuses it.
func (c *Controller) Show() error {
	wasVisible, err := c.surface.Visible()
	if err != nil {
		return err
	}
	if !wasVisible {
		for _, fn := range c.beforeShow {
			fn()
		}
	}

	if _, err := c.surface.Reposition(); err != nil {
		return err
	}
	if err := c.surface.RaiseAndFocus(); err != nil {
		return err
	}

	c.logger.Debug("panel shown", "was_visible", wasVisible)
	if !wasVisible {
		c.notify(true)
	}
	return nil
}

// Hide takes the panel off screen without activating another window. The
// panel keeps its geometry.
func (c *Controller) Hide() error {
	wasVisible, err := c.surface.Visible()
	if err != nil {
		return err
	}
	if err := c.surface.OrderOut(); err != nil {
		return err
	}

	c.logger.Debug("panel hidden", "was_visible", wasVisible)
	if wasVisible {
		c.notify(false)
	}
	return nil
}

// Toggle hides a visible panel and shows a hidden one. It returns the
// visibility after the transition, or false with the error when the
// transition failed.
func (c *Controller) Toggle() (bool, error) {
	visible, err := c.surface.Visible()
	if err != nil {
		return false, err
	}
	if visible {
		if err := c.Hide(); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := c.Show(); err != nil {
		return false, err
	}
	return true, nil
}

// IsVisible queries the current panel visibility.
func (c *Controller) IsVisible() (bool, error) {
	return c.surface.Visible()
}

func (c *Controller) notify(visible bool) {
	for _, fn := range c.listeners {
		fn(visible)
	}
}
