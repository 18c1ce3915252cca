// Package dbusapi exports the panel on the session bus so desktop
// launchers and a second instance can bring it up.
package dbusapi

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// Interface is the panel interface name.
	Interface = "io.macpaste.Panel"
	// Path is the panel object path.
	Path = dbus.ObjectPath("/io/macpaste/Panel")
	// BusName is the well-known name claimed by the daemon.
	BusName = "io.macpaste.Panel"
)

// ErrNameTaken is returned by Start when another process owns BusName.
var ErrNameTaken = errors.New("bus name already taken")

// Panel is the daemon side of the interface. Calls arrive on godbus
// goroutines; implementations dispatch to the UI thread.
type Panel interface {
	Show() (bool, error)
	Hide() (bool, error)
	Toggle() (bool, error)
	Visible() (bool, error)
}

// Server owns the exported object and the bus name.
type Server struct {
	panel  Panel
	logger *slog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn
	running bool
}

// NewServer creates a server for panel.
func NewServer(panel Panel, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{panel: panel, logger: logger.With("component", "dbus")}
}

// Start connects to the session bus, exports the object and claims the bus
// name.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	if err := s.StartOn(conn); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// StartOn is Start on an existing connection. The server takes ownership
// of conn.
func (s *Server) StartOn(conn *dbus.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	if err := conn.Export(&object{panel: s.panel, logger: s.logger}, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: panelMethods(),
				Signals: panelSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s: %w", BusName, ErrNameTaken)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus service started", "name", BusName, "path", Path)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	err := s.conn.Close()
	s.conn = nil
	s.logger.Info("D-Bus service stopped")
	return err
}

// EmitVisibilityChanged broadcasts a visibility change. It is a no-op when
// the server is not running.
func (s *Server) EmitVisibilityChanged(visible bool) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	if err := conn.Emit(Path, Interface+".VisibilityChanged", visible); err != nil {
		return fmt.Errorf("failed to emit VisibilityChanged signal: %w", err)
	}
	s.logger.Debug("emitted VisibilityChanged signal", "visible", visible)
	return nil
}

// object carries only the methods exported on the bus.
type object struct {
	panel  Panel
	logger *slog.Logger
}

// Show shows the panel.
// D-Bus method: Show() -> b
func (o *object) Show() (bool, *dbus.Error) {
	o.logger.Debug("Show called")
	return o.result(o.panel.Show())
}

// Hide hides the panel.
// D-Bus method: Hide() -> b
func (o *object) Hide() (bool, *dbus.Error) {
	o.logger.Debug("Hide called")
	return o.result(o.panel.Hide())
}

// Toggle flips visibility and returns the new state.
// D-Bus method: Toggle() -> b
func (o *object) Toggle() (bool, *dbus.Error) {
	o.logger.Debug("Toggle called")
	return o.result(o.panel.Toggle())
}

// Visible reports the current state.
// D-Bus method: Visible() -> b
func (o *object) Visible() (bool, *dbus.Error) {
	return o.result(o.panel.Visible())
}

func (o *object) result(visible bool, err error) (bool, *dbus.Error) {
	if err != nil {
		o.logger.Warn("D-Bus call failed", "error", err)
		return false, dbus.MakeFailedError(err)
	}
	return visible, nil
}

func panelMethods() []introspect.Method {
	out := func(name string) introspect.Method {
		return introspect.Method{
			Name: name,
			Args: []introspect.Arg{
				{Name: "visible", Type: "b", Direction: "out"},
			},
		}
	}
	return []introspect.Method{out("Show"), out("Hide"), out("Toggle"), out("Visible")}
}

func panelSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "VisibilityChanged",
			Args: []introspect.Arg{
				{Name: "visible", Type: "b"},
			},
		},
	}
}
