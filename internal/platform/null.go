package platform

import (
	"fmt"
	"sync"
)

// NullBackend is an in-memory Backend. It is the degraded backend on
// platforms without a native implementation and the fake used in tests.
type NullBackend struct {
	mu       sync.Mutex
	displays []Display
	windows  map[WindowID]*nullWindow
	nextID   WindowID
	frontApp string
	scale    float64
	deferMap bool

	// Failure injection for tests.
	CreateErr  error
	PromoteErr error
	GeomErr    error
	HideErr    error
	DestroyErr error
}

type nullWindow struct {
	spec    WindowSpec
	bounds  Rect
	panel   *PanelSpec
	visible bool // mapped as far as the window system is concerned
	focused bool
	state   mapTracker
	queued  []bool // map (true) and unmap (false) notifications not yet delivered
}

// NullWindow is a snapshot of a window held by a NullBackend.
type NullWindow struct {
	Spec    WindowSpec
	Bounds  Rect
	Panel   *PanelSpec
	Visible bool
	Focused bool
}

var (
	_ Backend        = (*NullBackend)(nil)
	_ AppInspector   = (*NullBackend)(nil)
	_ ScaleOverrider = (*NullBackend)(nil)
)

// NewNullBackend returns a NullBackend reporting the given displays.
func NewNullBackend(displays ...Display) *NullBackend {
	return &NullBackend{
		displays: displays,
		windows:  make(map[WindowID]*nullWindow),
		nextID:   1,
	}
}

// SetDisplays replaces the reported display list.
func (b *NullBackend) SetDisplays(displays ...Display) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.displays = displays
}

// SetFrontmostApp sets the name returned by FrontmostApp.
func (b *NullBackend) SetFrontmostApp(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frontApp = name
}

// SetDeferredMap makes the backend behave like an X server with a window
// manager: a map request takes effect only when FlushMapEvents delivers
// it, and an unmap takes effect at once but its notification is queued.
func (b *NullBackend) SetDeferredMap(deferred bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deferMap = deferred
}

// FlushMapEvents delivers every queued map and unmap notification.
func (b *NullBackend) FlushMapEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.windows {
		for len(w.queued) > 0 {
			mapEv := w.queued[0]
			w.queued = w.queued[1:]
			if !mapEv {
				w.state.unmapped()
				continue
			}
			w.visible = true
			focus, unmapAgain := w.state.mapped()
			if unmapAgain {
				b.unmap(w)
			} else if focus {
				w.focused = true
			}
		}
	}
}

// SetScaleOverride forces the scale factor of every reported display.
func (b *NullBackend) SetScaleOverride(scale float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scale = scale
}

func (b *NullBackend) Displays() ([]Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Display, len(b.displays))
	copy(out, b.displays)
	if b.scale > 0 {
		for i := range out {
			out[i].ScaleFactor = b.scale
		}
	}
	return out, nil
}

func (b *NullBackend) CreateWindow(spec WindowSpec) (WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CreateErr != nil {
		return 0, b.CreateErr
	}
	id := b.nextID
	b.nextID++
	b.windows[id] = &nullWindow{spec: spec, bounds: spec.Bounds}
	return id, nil
}

func (b *NullBackend) PromoteToPanel(id WindowID, spec PanelSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PromoteErr != nil {
		return b.PromoteErr
	}
	w, err := b.window(id)
	if err != nil {
		return err
	}
	w.panel = &spec
	return nil
}

func (b *NullBackend) SetGeometry(id WindowID, bounds Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.GeomErr != nil {
		return b.GeomErr
	}
	w, err := b.window(id)
	if err != nil {
		return err
	}
	w.bounds = bounds
	return nil
}

func (b *NullBackend) RaiseAndFocus(id WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(id)
	if err != nil {
		return err
	}
	if !b.deferMap {
		w.visible = true
		w.focused = true
		return nil
	}
	if !w.visible {
		w.queued = append(w.queued, true)
	}
	if w.state.requestMap(w.visible) {
		w.focused = true
	}
	return nil
}

func (b *NullBackend) OrderOut(id WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.HideErr != nil {
		return b.HideErr
	}
	w, err := b.window(id)
	if err != nil {
		return err
	}
	b.unmap(w)
	return nil
}

func (b *NullBackend) unmap(w *nullWindow) {
	wasVisible := w.visible
	w.visible = false
	w.focused = false
	if !b.deferMap {
		return
	}
	if wasVisible {
		w.queued = append(w.queued, false)
	}
	w.state.requestUnmap(wasVisible)
}

func (b *NullBackend) IsVisible(id WindowID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.window(id)
	if err != nil {
		return false, err
	}
	return w.state.visible(w.visible), nil
}

func (b *NullBackend) Destroy(id WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DestroyErr != nil {
		return b.DestroyErr
	}
	if _, err := b.window(id); err != nil {
		return err
	}
	delete(b.windows, id)
	return nil
}

// FrontmostApp returns the configured frontmost application name.
func (b *NullBackend) FrontmostApp() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frontApp == "" {
		return UnknownApp
	}
	return b.frontApp
}

// Window returns a snapshot of a window, or false if it does not exist.
func (b *NullBackend) Window(id WindowID) (NullWindow, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	if !ok {
		return NullWindow{}, false
	}
	return NullWindow{
		Spec:    w.spec,
		Bounds:  w.bounds,
		Panel:   w.panel,
		Visible: w.visible,
		Focused: w.focused,
	}, true
}

// Deactivate simulates another application becoming active. Panels that
// hide on deactivation are ordered out and their OnAutoHide hook runs.
func (b *NullBackend) Deactivate() {
	var hooks []func()
	b.mu.Lock()
	for _, w := range b.windows {
		w.focused = false
		if w.panel == nil || !w.panel.HideOnDeactivate || !w.state.visible(w.visible) {
			continue
		}
		b.unmap(w)
		if w.panel.OnAutoHide != nil {
			hooks = append(hooks, w.panel.OnAutoHide)
		}
	}
	b.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

func (b *NullBackend) window(id WindowID) (*nullWindow, error) {
	w, ok := b.windows[id]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", id, ErrUnknownWindow)
	}
	return w, nil
}
