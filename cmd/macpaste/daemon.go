package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/xgbutil"
	"github.com/spf13/cobra"

	"github.com/macpaste/macpaste/internal/app"
	"github.com/macpaste/macpaste/internal/config"
	"github.com/macpaste/macpaste/internal/dbusapi"
	"github.com/macpaste/macpaste/internal/hotkeys"
	"github.com/macpaste/macpaste/internal/ipc"
	"github.com/macpaste/macpaste/internal/logging"
	"github.com/macpaste/macpaste/internal/platform"
	"github.com/macpaste/macpaste/internal/tray"
	"github.com/macpaste/macpaste/internal/uithread"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the panel daemon",
	Long: `Run the panel daemon in the foreground.

The daemon creates the panel window, grabs the global hotkey and serves
the IPC socket, the tray icon and the io.macpaste.Panel D-Bus service.
If a daemon is already running, its panel is shown instead and this
process exits.

SIGHUP reloads the configuration; edits to the config file are picked up
automatically.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

type xutilProvider interface {
	XUtil() *xgbutil.XUtil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := res.Config

	logger, logCloser, err := logging.Setup(cfg.GetLoggingConfig(), globalOpts.verbose)
	defer logCloser.Close()
	if err != nil {
		logger.Warn("file logging disabled", "error", err)
	}
	slog.SetDefault(logger)

	if activateRunning(cfg, logger) {
		return nil
	}

	logger.Info("configuration loaded", "path", path, "hotkey", cfg.Hotkey, "height", cfg.Panel.Height)

	nativeBackend, err := platform.NewDefaultBackend(cfg.Display.ScaleFactor)
	if err != nil {
		return fmt.Errorf("failed to connect to display: %w", err)
	}
	var backend platform.Backend = nativeBackend
	defer func() {
		if d, ok := backend.(interface{ Disconnect() }); ok {
			d.Disconnect()
		}
	}()

	var xu *xgbutil.XUtil
	if p, ok := backend.(xutilProvider); ok {
		xu = p.XUtil()
	}

	loop := uithread.New(xu)
	a := app.New(backend, loop, cfg, path, logger)
	if err := a.Init(); err != nil {
		logger.Error("panel initialization failed", "error", err)
		return err
	}

	if xu != nil {
		hk := hotkeys.NewHandler(xu, logger)
		// Key callbacks run on the X event goroutine, which is the UI loop.
		toggle := func() {
			if _, err := a.Controller().Toggle(); err != nil {
				logger.Warn("hotkey toggle failed", "error", err)
			}
		}
		if err := hk.Register(cfg.Hotkey, toggle); err != nil {
			logger.Error("failed to register hotkey", "hotkey", cfg.Hotkey, "error", err)
		}
		a.OnReload(func(c *config.Config) {
			if err := hk.Rebind(c.Hotkey); err != nil {
				logger.Error("failed to rebind hotkey", "hotkey", c.Hotkey, "error", err)
			}
		})
	}

	ipcServer, err := ipc.NewServer(a, logger)
	if err != nil {
		return err
	}
	if err := ipcServer.Start(); err != nil {
		return err
	}
	defer ipcServer.Stop()

	if cfg.DBus.Enabled {
		bus := dbusapi.NewServer(a, logger)
		if err := bus.Start(); err != nil {
			logger.Warn("D-Bus service unavailable", "error", err)
		} else {
			defer bus.Stop()
			a.OnChange(func(visible bool) {
				if err := bus.EmitVisibilityChanged(visible); err != nil {
					logger.Warn("failed to emit visibility signal", "error", err)
				}
			})
		}
	}

	watcher, err := config.NewWatcher(path, func() {
		if err := a.Reload(); err != nil {
			logger.Warn("config reload failed", "error", err)
		}
	}, logger)
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else if err := watcher.Start(); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		defer watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					if err := a.Reload(); err != nil {
						logger.Warn("config reload failed", "error", err)
					}
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				a.RequestShutdown()
			case <-loop.Done():
				a.RequestShutdown()
				return
			}
		}
	}()

	useTray := cfg.Tray.Enabled
	if useTray {
		a.OnChange(tray.SetVisible)
		a.OnReload(func(c *config.Config) { tray.SetHotkey(hotkeys.Normalize(c.Hotkey)) })
	}

	go func() {
		<-a.ShutdownRequested()
		if err := a.Destroy(); err != nil && !errors.Is(err, uithread.ErrStopped) {
			logger.Warn("failed to destroy panel", "error", err)
		}
		loop.Stop()
		if useTray {
			tray.Quit()
		}
	}()

	logger.Info("macpaste daemon started", "socket", ipcServer.SocketPath(), "tray", useTray)
	if useTray {
		tray.Run(a, logger, func() { go loop.Run() }, nil)
		<-loop.Done()
	} else {
		loop.Run()
	}
	logger.Info("macpaste daemon stopped")
	return nil
}

// activateRunning shows the panel of an already running daemon. It reports
// whether one answered.
func activateRunning(cfg *config.Config, logger *slog.Logger) bool {
	client := ipc.NewClient()
	if err := client.Ping(); err == nil {
		if _, err := client.Show(); err != nil {
			logger.Warn("running daemon refused show", "error", err)
		}
		logger.Info("daemon already running, panel shown")
		return true
	}

	if !cfg.DBus.Enabled {
		return false
	}
	if _, err := dbusapi.ActivateRunning(); err == nil {
		logger.Info("daemon already running on the session bus, panel shown")
		return true
	} else if !errors.Is(err, dbusapi.ErrNotRunning) {
		logger.Debug("D-Bus activation unavailable", "error", err)
	}
	return false
}
