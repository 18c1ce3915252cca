package dbusapi

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ErrNotRunning is returned by ActivateRunning when no daemon owns the bus
// name.
var ErrNotRunning = errors.New("no running instance")

// ActivateRunning asks an already running daemon to show its panel. It is
// used when the app is launched a second time.
func ActivateRunning() (bool, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()
	return activate(conn)
}

func activate(conn *dbus.Conn) (bool, error) {
	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", BusName, err)
	}
	if !owned {
		return false, ErrNotRunning
	}

	var visible bool
	call := conn.Object(BusName, Path).Call(Interface+".Show", 0)
	if err := call.Store(&visible); err != nil {
		return false, fmt.Errorf("%s.Show: %w", Interface, err)
	}
	return visible, nil
}
