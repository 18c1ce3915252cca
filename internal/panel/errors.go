package panel

import "errors"

var (
	// ErrSurfaceNotFound is returned when the panel window was never
	// created or has been destroyed.
	ErrSurfaceNotFound = errors.New("panel surface not found")
	// ErrCreate wraps failures to create the panel window.
	ErrCreate = errors.New("failed to create panel window")
	// ErrPromote wraps failures to turn the window into a floating panel.
	ErrPromote = errors.New("failed to convert window to panel")
	// ErrAlreadyCreated is returned by a second Create call.
	ErrAlreadyCreated = errors.New("panel surface already created")
)
