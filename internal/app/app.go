// Package app is the application context: it owns the panel, the UI loop
// and the live configuration, and is handed explicitly to every host
// surface (hotkey, IPC, tray, D-Bus).
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/macpaste/macpaste/internal/config"
	"github.com/macpaste/macpaste/internal/ipc"
	"github.com/macpaste/macpaste/internal/panel"
	"github.com/macpaste/macpaste/internal/platform"
	"github.com/macpaste/macpaste/internal/uithread"
)

// App holds the panel controller. Methods named after panel operations
// may be called from any goroutine; they run on the UI loop. Controller
// gives UI-thread code direct access.
type App struct {
	backend    platform.Backend
	surface    *panel.Surface
	controller *panel.Controller
	loop       *uithread.Loop
	logger     *slog.Logger
	startTime  time.Time

	mu         sync.Mutex
	cfg        *config.Config
	configPath string
	frontmost  string
	reloaders  []func(*config.Config)

	quitOnce sync.Once
	quit     chan struct{}
}

// New wires a controller for cfg onto backend. The panel window is not
// created until Init.
func New(backend platform.Backend, loop *uithread.Loop, cfg *config.Config, configPath string, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	surface := panel.NewSurface(backend, PanelOptions(cfg), logger)
	a := &App{
		backend:    backend,
		surface:    surface,
		controller: panel.NewController(surface, logger),
		loop:       loop,
		logger:     logger,
		startTime:  time.Now(),
		cfg:        cfg,
		configPath: configPath,
		frontmost:  platform.UnknownApp,
		quit:       make(chan struct{}),
	}
	if s, ok := backend.(platform.ScaleOverrider); ok {
		s.SetScaleOverride(cfg.Display.ScaleFactor)
	}
	a.controller.BeforeShow(a.captureFrontmost)
	return a
}

// PanelOptions maps the configuration onto surface options.
func PanelOptions(cfg *config.Config) panel.Options {
	opts := panel.DefaultOptions()
	opts.Height = cfg.Panel.Height
	opts.Level = platform.Level(cfg.Panel.Level)
	opts.HideOnDeactivate = cfg.Panel.HideOnDeactivate
	opts.Background = cfg.BackgroundARGB()
	return opts
}

// Init creates the panel window. It must run before the loop starts or on
// the loop, and a failure is fatal to the daemon.
func (a *App) Init() error {
	if err := a.surface.Create(); err != nil {
		return fmt.Errorf("failed to initialize panel: %w", err)
	}
	return nil
}

// Controller returns the panel controller for code already on the UI
// thread, such as X event callbacks.
func (a *App) Controller() *panel.Controller {
	return a.controller
}

// Loop returns the UI loop.
func (a *App) Loop() *uithread.Loop {
	return a.loop
}

// Config returns the live configuration.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// ConfigPath returns the file the configuration is reloaded from.
func (a *App) ConfigPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.configPath
}

// Hotkey returns the configured panel shortcut.
func (a *App) Hotkey() string {
	return a.Config().Hotkey
}

// OnChange registers fn for visibility changes. It runs on the UI thread
// and must be registered before the loop starts.
func (a *App) OnChange(fn func(visible bool)) {
	a.controller.OnChange(fn)
}

// OnReload registers fn to run on the UI thread after a configuration
// reload was applied.
func (a *App) OnReload(fn func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reloaders = append(a.reloaders, fn)
}

// Show shows the panel and reports the resulting visibility.
func (a *App) Show() (bool, error) {
	err := a.loop.Do(a.controller.Show)
	if err != nil {
		a.logFailure("show", err)
		return false, err
	}
	return true, nil
}

// Hide hides the panel and reports the resulting visibility.
func (a *App) Hide() (bool, error) {
	err := a.loop.Do(a.controller.Hide)
	if err != nil {
		a.logFailure("hide", err)
		return false, err
	}
	return false, nil
}

// Toggle flips visibility and returns the state after the transition.
func (a *App) Toggle() (bool, error) {
	var visible bool
	err := a.loop.Do(func() error {
		var err error
		visible, err = a.controller.Toggle()
		return err
	})
	if err != nil {
		a.logFailure("toggle", err)
		return false, err
	}
	return visible, nil
}

// Visible queries the current visibility.
func (a *App) Visible() (bool, error) {
	var visible bool
	err := a.loop.Do(func() error {
		var err error
		visible, err = a.controller.IsVisible()
		return err
	})
	return visible, err
}

// FrontmostApp returns the application that was active before the panel
// was last shown.
func (a *App) FrontmostApp() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frontmost
}

// Status reports the panel state. A panel that was never created or was
// destroyed is reported as not created rather than as an error.
func (a *App) Status() (ipc.StatusData, error) {
	var status ipc.StatusData
	err := a.loop.Do(func() error {
		visible, err := a.controller.IsVisible()
		if errors.Is(err, panel.ErrSurfaceNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status.Created = true
		status.Visible = visible
		if g, ok := a.surface.Geometry(); ok {
			status.Geometry = &ipc.GeometryInfo{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
		}
		return nil
	})
	if err != nil {
		return ipc.StatusData{}, err
	}
	status.FrontmostApp = a.FrontmostApp()
	status.ConfigPath = a.ConfigPath()
	status.UptimeSeconds = int64(time.Since(a.startTime).Seconds())
	return status, nil
}

// Monitors lists the displays as the panel sees them.
func (a *App) Monitors() ([]ipc.MonitorInfo, error) {
	var displays []platform.Display
	err := a.loop.Do(func() error {
		var err error
		displays, err = a.backend.Displays()
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]ipc.MonitorInfo, len(displays))
	for i, d := range displays {
		out[i] = ipc.MonitorInfo{
			ID:          d.ID,
			Name:        d.Name,
			X:           d.Origin.X,
			Y:           d.Origin.Y,
			Width:       d.Size.Width,
			Height:      d.Size.Height,
			ScaleFactor: d.ScaleFactor,
			Primary:     d.Primary,
		}
	}
	return out, nil
}

// Reload rereads the configuration file and applies it. An invalid file
// leaves the running configuration untouched.
func (a *App) Reload() error {
	path := a.ConfigPath()
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		a.logger.Warn("config reload rejected", "path", path, "error", err)
		return err
	}
	return a.Apply(res.Config)
}

// Apply installs cfg as the live configuration on the UI thread. Height,
// scale and hotkey changes take effect immediately; level and
// hide_on_deactivate need a restart.
func (a *App) Apply(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return a.loop.Do(func() error {
		a.mu.Lock()
		prev := a.cfg
		a.cfg = cfg
		reloaders := append([]func(*config.Config){}, a.reloaders...)
		a.mu.Unlock()

		a.surface.SetHeight(cfg.Panel.Height)
		if s, ok := a.backend.(platform.ScaleOverrider); ok {
			s.SetScaleOverride(cfg.Display.ScaleFactor)
		}
		if prev.Panel.Level != cfg.Panel.Level || prev.Panel.HideOnDeactivate != cfg.Panel.HideOnDeactivate {
			a.logger.Info("panel level and hide_on_deactivate apply after restart")
		}

		// A visible panel picks up the new geometry right away.
		if visible, err := a.controller.IsVisible(); err == nil && visible {
			if _, err := a.surface.Reposition(); err != nil {
				a.logger.Warn("failed to reposition after reload", "error", err)
			}
		}

		for _, fn := range reloaders {
			fn(cfg)
		}
		a.logger.Info("config applied", "height", cfg.Panel.Height, "hotkey", cfg.Hotkey)
		return nil
	})
}

// Destroy tears down the panel window.
func (a *App) Destroy() error {
	err := a.loop.Do(a.surface.Destroy)
	if errors.Is(err, panel.ErrSurfaceNotFound) {
		return nil
	}
	return err
}

// RequestShutdown asks the daemon to exit. It is safe to call repeatedly.
func (a *App) RequestShutdown() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// ShutdownRequested is closed once RequestShutdown was called.
func (a *App) ShutdownRequested() <-chan struct{} {
	return a.quit
}

func (a *App) captureFrontmost() {
	name := platform.UnknownApp
	if insp, ok := a.backend.(platform.AppInspector); ok {
		if n := insp.FrontmostApp(); n != "" {
			name = n
		}
	}
	a.mu.Lock()
	a.frontmost = name
	a.mu.Unlock()
}

func (a *App) logFailure(op string, err error) {
	if errors.Is(err, panel.ErrSurfaceNotFound) {
		a.logger.Warn("panel operation on missing surface", "op", op, "error", err)
		return
	}
	a.logger.Error("panel operation failed", "op", op, "error", err)
}
