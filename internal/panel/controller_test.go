package panel

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/macpaste/macpaste/internal/platform"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func retinaDisplay() Display {
	return Display{
		ID:          0,
		Name:        "eDP-1",
		Size:        platform.Size{Width: 1920, Height: 1080},
		ScaleFactor: 2,
		Primary:     true,
	}
}

// newPanel returns a created controller over a NullBackend.
func newPanel(t *testing.T, displays ...Display) (*Controller, *platform.NullBackend) {
	t.Helper()
	backend := platform.NewNullBackend(displays...)
	surface := NewSurface(backend, DefaultOptions(), quietLogger())
	ctrl := NewController(surface, quietLogger())
	if err := surface.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ctrl, backend
}

func window(t *testing.T, backend *platform.NullBackend, s *Surface) platform.NullWindow {
	t.Helper()
	w, ok := backend.Window(s.id)
	if !ok {
		t.Fatal("panel window missing from backend")
	}
	return w
}

func mustVisible(t *testing.T, ctrl *Controller) bool {
	t.Helper()
	visible, err := ctrl.IsVisible()
	if err != nil {
		t.Fatalf("IsVisible: %v", err)
	}
	return visible
}

func mustToggle(t *testing.T, ctrl *Controller) bool {
	t.Helper()
	visible, err := ctrl.Toggle()
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	return visible
}

func TestCreateBuildsHiddenPanel(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	w := window(t, backend, ctrl.Surface())

	if w.Visible {
		t.Error("new panel is visible")
	}
	spec := w.Spec
	if !spec.Borderless || !spec.Transparent || !spec.AlwaysOnTop || !spec.SkipTaskbar || spec.Resizable {
		t.Errorf("window spec = %+v", spec)
	}
	if want := (platform.Rect{X: 0, Y: 400, Width: 1920, Height: 680}); w.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", w.Bounds, want)
	}

	if w.Panel == nil {
		t.Fatal("window was not promoted to a panel")
	}
	if w.Panel.Level != platform.LevelAboveDock || w.Panel.Level <= platform.LevelDock {
		t.Errorf("level = %d, want %d", w.Panel.Level, platform.LevelAboveDock)
	}
	if !w.Panel.HideOnDeactivate {
		t.Error("panel does not hide on deactivation")
	}
}

func TestCreateIsSingleton(t *testing.T) {
	ctrl, _ := newPanel(t, retinaDisplay())
	if err := ctrl.Surface().Create(); !errors.Is(err, ErrAlreadyCreated) {
		t.Fatalf("second Create err = %v, want ErrAlreadyCreated", err)
	}
}

func TestCreateAfterDestroyIsRefused(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	if err := ctrl.Surface().Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if err := ctrl.Surface().Create(); !errors.Is(err, ErrAlreadyCreated) {
		t.Fatalf("Create after Destroy err = %v, want ErrAlreadyCreated", err)
	}
	if _, ok := backend.Window(2); ok {
		t.Fatal("a second panel window was created")
	}
}

func TestFailedDestroyKeepsWindow(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	id := ctrl.Surface().id
	backend.DestroyErr = errors.New("server busy")

	err := ctrl.Surface().Destroy()
	if err == nil || !strings.Contains(err.Error(), "server busy") {
		t.Fatalf("Destroy err = %v, want backend error", err)
	}
	if _, err := ctrl.IsVisible(); err != nil {
		t.Fatalf("surface unusable after failed destroy: %v", err)
	}

	backend.DestroyErr = nil
	if err := ctrl.Surface().Destroy(); err != nil {
		t.Fatalf("retried Destroy: %v", err)
	}
	if _, ok := backend.Window(id); ok {
		t.Fatal("window still exists after retried Destroy")
	}
}

func TestCreateWithoutDisplays(t *testing.T) {
	ctrl, backend := newPanel(t)
	w := window(t, backend, ctrl.Surface())
	if want := (platform.Rect{Width: 1, Height: 340}); w.Bounds != want {
		t.Fatalf("bounds = %+v, want %+v", w.Bounds, want)
	}
}

func TestCreateFailures(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		backend := platform.NewNullBackend(retinaDisplay())
		backend.CreateErr = errors.New("no compositor")
		surface := NewSurface(backend, DefaultOptions(), quietLogger())

		err := surface.Create()
		if !errors.Is(err, ErrCreate) {
			t.Fatalf("err = %v, want ErrCreate", err)
		}
		for _, want := range []string{"no compositor", `"panel"`} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %s", err, want)
			}
		}
	})

	t.Run("promote", func(t *testing.T) {
		backend := platform.NewNullBackend(retinaDisplay())
		backend.PromoteErr = errors.New("level rejected")
		surface := NewSurface(backend, DefaultOptions(), quietLogger())

		err := surface.Create()
		if !errors.Is(err, ErrPromote) {
			t.Fatalf("err = %v, want ErrPromote", err)
		}
		if !strings.Contains(err.Error(), "level rejected") {
			t.Errorf("error %q does not carry the cause", err)
		}

		// The half-built window is torn down.
		if _, ok := backend.Window(1); ok {
			t.Error("half-built window left behind")
		}
		if _, err := surface.Visible(); !errors.Is(err, ErrSurfaceNotFound) {
			t.Errorf("Visible err = %v, want ErrSurfaceNotFound", err)
		}
	})
}

func TestToggleIsInvolution(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())

	if !mustToggle(t, ctrl) {
		t.Fatal("first toggle reported hidden")
	}
	if !window(t, backend, ctrl.Surface()).Visible {
		t.Fatal("window hidden after first toggle")
	}

	if mustToggle(t, ctrl) {
		t.Fatal("second toggle reported visible")
	}
	if window(t, backend, ctrl.Surface()).Visible {
		t.Fatal("window visible after second toggle")
	}
}

func TestToggleWithDeferredMap(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	backend.SetDeferredMap(true)

	// Two quick toggles before the window manager maps the panel.
	if !mustToggle(t, ctrl) {
		t.Fatal("first toggle reported hidden")
	}
	if !mustVisible(t, ctrl) {
		t.Fatal("visibility query disagrees with the toggle result")
	}
	if mustToggle(t, ctrl) {
		t.Fatal("second toggle showed the panel again")
	}

	// The late map must not leave the panel on screen.
	backend.FlushMapEvents()
	if mustVisible(t, ctrl) {
		t.Fatal("panel visible after the late map was delivered")
	}
	if w := window(t, backend, ctrl.Surface()); w.Visible {
		t.Fatalf("window = %+v, want unmapped", w)
	}
}

func TestShowFocusesOnceMapped(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	backend.SetDeferredMap(true)

	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if w := window(t, backend, ctrl.Surface()); w.Focused {
		t.Fatal("focus given before the window was mapped")
	}

	backend.FlushMapEvents()
	w := window(t, backend, ctrl.Surface())
	if !w.Visible || !w.Focused {
		t.Fatalf("window after map = %+v, want visible and focused", w)
	}
	if !mustVisible(t, ctrl) {
		t.Fatal("panel reported hidden after map")
	}
}

func TestToggleReportsFailedHide(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	backend.HideErr = errors.New("unmap refused")

	visible, err := ctrl.Toggle()
	if err == nil || !strings.Contains(err.Error(), "unmap refused") {
		t.Fatalf("Toggle err = %v, want hide failure", err)
	}
	if visible {
		t.Fatal("failed toggle reported true")
	}
	if !mustVisible(t, ctrl) {
		t.Fatal("panel hidden although the hide failed")
	}
}

func TestShowIsIdempotent(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())

	for i := 0; i < 2; i++ {
		if err := ctrl.Show(); err != nil {
			t.Fatalf("Show #%d: %v", i+1, err)
		}
	}

	w := window(t, backend, ctrl.Surface())
	if !w.Visible || !w.Focused {
		t.Fatalf("window = %+v, want visible and focused", w)
	}
}

func TestHideIsIdempotent(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := ctrl.Hide(); err != nil {
			t.Fatalf("Hide #%d: %v", i+1, err)
		}
	}
	if window(t, backend, ctrl.Surface()).Visible {
		t.Fatal("window visible after Hide")
	}
}

func TestShowRepositionsOnCurrentDisplay(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())

	external := Display{
		ID:          1,
		Name:        "DP-2",
		Size:        platform.Size{Width: 2560, Height: 1440},
		Origin:      platform.Point{X: 1920, Y: 0},
		ScaleFactor: 1,
		Primary:     true,
	}
	laptop := retinaDisplay()
	laptop.Primary = false
	backend.SetDisplays(laptop, external)

	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if got, want := window(t, backend, ctrl.Surface()).Bounds, (platform.Rect{X: 1920, Y: 1100, Width: 2560, Height: 340}); got != want {
		t.Errorf("bounds = %+v, want %+v", got, want)
	}

	geom, ok := ctrl.Surface().Geometry()
	if want := (Geometry{X: 1920, Y: 1100, Width: 2560, Height: 340}); !ok || geom != want {
		t.Errorf("Geometry() = %+v, %v; want %+v", geom, ok, want)
	}
}

func TestHideKeepsGeometry(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	before := window(t, backend, ctrl.Surface()).Bounds

	backend.SetDisplays(Display{
		Size:        platform.Size{Width: 800, Height: 600},
		ScaleFactor: 1,
	})
	if err := ctrl.Hide(); err != nil {
		t.Fatalf("Hide: %v", err)
	}
	if got := window(t, backend, ctrl.Surface()).Bounds; got != before {
		t.Fatalf("bounds = %+v, want %+v", got, before)
	}
}

func TestShowWithoutDisplaysIsDegraded(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if err := ctrl.Hide(); err != nil {
		t.Fatalf("Hide: %v", err)
	}
	before := window(t, backend, ctrl.Surface()).Bounds

	backend.SetDisplays()
	if err := ctrl.Show(); err != nil {
		t.Fatalf("Show without displays: %v", err)
	}

	w := window(t, backend, ctrl.Surface())
	if !w.Visible || w.Bounds != before {
		t.Fatalf("window = %+v, want visible at %+v", w, before)
	}
}

func TestRepositionReportsDegradedState(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())

	applied, err := ctrl.Surface().Reposition()
	if err != nil || !applied {
		t.Fatalf("Reposition() = %v, %v; want applied", applied, err)
	}

	backend.SetDisplays()
	applied, err = ctrl.Surface().Reposition()
	if err != nil || applied {
		t.Fatalf("Reposition() without displays = %v, %v; want not applied", applied, err)
	}
}

func TestOperationsWithoutSurface(t *testing.T) {
	backend := platform.NewNullBackend(retinaDisplay())
	ctrl := NewController(NewSurface(backend, DefaultOptions(), quietLogger()), quietLogger())

	ops := map[string]func() error{
		"Show": ctrl.Show,
		"Hide": ctrl.Hide,
		"Toggle": func() error {
			_, err := ctrl.Toggle()
			return err
		},
		"IsVisible": func() error {
			_, err := ctrl.IsVisible()
			return err
		},
		"Reposition": func() error {
			_, err := ctrl.Surface().Reposition()
			return err
		},
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrSurfaceNotFound) {
			t.Errorf("%s err = %v, want ErrSurfaceNotFound", name, err)
		}
	}
}

func TestOperationsAfterDestroy(t *testing.T) {
	ctrl, _ := newPanel(t, retinaDisplay())
	if err := ctrl.Surface().Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	err := ctrl.Show()
	if !errors.Is(err, ErrSurfaceNotFound) {
		t.Fatalf("Show err = %v, want ErrSurfaceNotFound", err)
	}
	if !strings.Contains(err.Error(), `"panel"`) {
		t.Errorf("error %q does not name the panel", err)
	}
	if err := ctrl.Hide(); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("Hide err = %v, want ErrSurfaceNotFound", err)
	}
	if err := ctrl.Surface().Destroy(); !errors.Is(err, ErrSurfaceNotFound) {
		t.Errorf("second Destroy err = %v, want ErrSurfaceNotFound", err)
	}
}

func TestBackendLosingWindowMapsToNotFound(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	if err := backend.Destroy(ctrl.Surface().id); err != nil {
		t.Fatalf("backend Destroy: %v", err)
	}

	err := ctrl.Show()
	if !errors.Is(err, ErrSurfaceNotFound) || !errors.Is(err, platform.ErrUnknownWindow) {
		t.Fatalf("Show err = %v, want ErrSurfaceNotFound wrapping ErrUnknownWindow", err)
	}
}

func TestToggleSeesExternalHide(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())

	var changes []bool
	ctrl.OnChange(func(visible bool) { changes = append(changes, visible) })

	if !mustToggle(t, ctrl) {
		t.Fatal("first toggle reported hidden")
	}

	// Another application is activated and the panel hides itself.
	backend.Deactivate()

	if !mustToggle(t, ctrl) {
		t.Fatal("toggle after deactivation should show again")
	}
	if want := []bool{true, false, true}; !reflect.DeepEqual(changes, want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
}

func TestListenersOnlySeeRealChanges(t *testing.T) {
	ctrl, _ := newPanel(t, retinaDisplay())

	var changes []bool
	ctrl.OnChange(func(visible bool) { changes = append(changes, visible) })

	for _, op := range []func() error{ctrl.Hide, ctrl.Show, ctrl.Show, ctrl.Hide, ctrl.Hide} {
		if err := op(); err != nil {
			t.Fatal(err)
		}
	}

	if want := []bool{true, false}; !reflect.DeepEqual(changes, want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
}

func TestBeforeShowRunsOnlyFromHidden(t *testing.T) {
	ctrl, _ := newPanel(t, retinaDisplay())

	calls := 0
	ctrl.BeforeShow(func() { calls++ })

	for _, op := range []func() error{ctrl.Show, ctrl.Show} {
		if err := op(); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d after two shows, want 1", calls)
	}

	if err := ctrl.Hide(); err != nil {
		t.Fatal(err)
	}
	mustToggle(t, ctrl)
	if calls != 2 {
		t.Fatalf("calls = %d after toggle from hidden, want 2", calls)
	}
}

func TestShowPropagatesGeometryErrors(t *testing.T) {
	ctrl, backend := newPanel(t, retinaDisplay())
	backend.GeomErr = errors.New("configure refused")

	err := ctrl.Show()
	if err == nil || !strings.Contains(err.Error(), "configure refused") {
		t.Fatalf("Show err = %v, want geometry failure", err)
	}
	if errors.Is(err, ErrSurfaceNotFound) {
		t.Fatalf("geometry failure reported as missing surface: %v", err)
	}
}
