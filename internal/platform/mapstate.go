package platform

// mapTracker follows a window's requested map state while the request is
// in flight. Under a window manager a map request is redirected and the
// window only becomes viewable once the manager maps it, so the server's
// map state lags behind what the client asked for.
type mapTracker struct {
	pending    bool
	want       bool
	focusOnMap bool
}

// visible reports the requested state while a request is in flight and
// the server's state otherwise.
func (m *mapTracker) visible(viewable bool) bool {
	if m.pending {
		return m.want
	}
	return viewable
}

// requestMap records a map request. It reports whether focus can be given
// right away; otherwise focus is handed over by mapped.
func (m *mapTracker) requestMap(viewable bool) (focusNow bool) {
	if viewable {
		m.pending = false
		m.focusOnMap = false
		return true
	}
	m.pending = true
	m.want = true
	m.focusOnMap = true
	return false
}

// requestUnmap records an unmap request. viewable is the state before the
// request was sent.
func (m *mapTracker) requestUnmap(viewable bool) {
	m.focusOnMap = false
	switch {
	case viewable:
		// UnmapNotify follows.
		m.pending = true
		m.want = false
	case m.pending && m.want:
		// A map is still with the window manager.
		m.want = false
	default:
		m.pending = false
	}
}

// mapped handles a MapNotify. focus is set when the map completes a show
// request; unmapAgain when the panel was hidden while the map was in
// flight.
func (m *mapTracker) mapped() (focus, unmapAgain bool) {
	if !m.pending {
		return false, false
	}
	if !m.want {
		return false, true
	}
	m.pending = false
	focus = m.focusOnMap
	m.focusOnMap = false
	return focus, false
}

// unmapped handles an UnmapNotify.
func (m *mapTracker) unmapped() {
	if m.pending && !m.want {
		m.pending = false
	}
}
