package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/macpaste/macpaste/internal/config"
	"github.com/macpaste/macpaste/internal/panel"
	"github.com/macpaste/macpaste/internal/platform"
	"github.com/macpaste/macpaste/internal/uithread"
)

func hdDisplay() platform.Display {
	return platform.Display{
		ID:          0,
		Name:        "HDMI-1",
		Size:        platform.Size{Width: 1920, Height: 1080},
		ScaleFactor: 1,
		Primary:     true,
	}
}

func newApp(t *testing.T, cfg *config.Config, configPath string) (*App, *platform.NullBackend) {
	t.Helper()
	backend := platform.NewNullBackend(hdDisplay())
	loop := uithread.New(nil)
	go loop.Run()
	t.Cleanup(func() {
		loop.Stop()
		<-loop.Done()
	})

	a := New(backend, loop, cfg, configPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return a, backend
}

func mustInit(t *testing.T, a *App) {
	t.Helper()
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

func mustShow(t *testing.T, a *App) {
	t.Helper()
	if _, err := a.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
}

func TestToggleAfterInit(t *testing.T) {
	a, _ := newApp(t, nil, "")
	mustInit(t, a)

	visible, err := a.Toggle()
	if err != nil || !visible {
		t.Fatalf("first Toggle() = %v, %v; want true", visible, err)
	}

	visible, err = a.Visible()
	if err != nil || !visible {
		t.Fatalf("Visible() = %v, %v; want true", visible, err)
	}

	visible, err = a.Toggle()
	if err != nil || visible {
		t.Fatalf("second Toggle() = %v, %v; want false", visible, err)
	}
}

func TestOperationsBeforeInitReportMissingSurface(t *testing.T) {
	a, _ := newApp(t, nil, "")

	ops := map[string]func() (bool, error){
		"Show":   a.Show,
		"Hide":   a.Hide,
		"Toggle": a.Toggle,
	}
	for name, op := range ops {
		if _, err := op(); !errors.Is(err, panel.ErrSurfaceNotFound) {
			t.Errorf("%s err = %v, want ErrSurfaceNotFound", name, err)
		}
	}

	status, err := a.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Created || status.Visible || status.Geometry != nil {
		t.Fatalf("status = %+v, want not created", status)
	}
}

func TestShowCapturesFrontmostApp(t *testing.T) {
	a, backend := newApp(t, nil, "")
	mustInit(t, a)
	if got := a.FrontmostApp(); got != platform.UnknownApp {
		t.Fatalf("FrontmostApp() = %q before show, want %q", got, platform.UnknownApp)
	}

	backend.SetFrontmostApp("Firefox")
	mustShow(t, a)
	if got := a.FrontmostApp(); got != "Firefox" {
		t.Fatalf("FrontmostApp() = %q, want Firefox", got)
	}

	// Re-showing a visible panel does not recapture.
	backend.SetFrontmostApp("macpaste")
	mustShow(t, a)
	if got := a.FrontmostApp(); got != "Firefox" {
		t.Fatalf("FrontmostApp() = %q after re-show, want Firefox", got)
	}
}

func TestStatusReportsGeometry(t *testing.T) {
	a, _ := newApp(t, nil, "/tmp/macpaste.yaml")
	mustInit(t, a)
	mustShow(t, a)

	status, err := a.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Created || !status.Visible {
		t.Errorf("status = %+v, want created and visible", status)
	}
	if status.ConfigPath != "/tmp/macpaste.yaml" {
		t.Errorf("ConfigPath = %q", status.ConfigPath)
	}
	g := status.Geometry
	if g == nil {
		t.Fatal("geometry missing")
	}
	if g.Width != 1920 || g.Height != 340 || g.Y != 740 {
		t.Fatalf("geometry = %+v, want 1920x340 at y=740", *g)
	}
}

func TestStatusMatchesShowBeforeMap(t *testing.T) {
	a, backend := newApp(t, nil, "")
	mustInit(t, a)
	backend.SetDeferredMap(true)

	mustShow(t, a)
	status, err := a.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Visible {
		t.Fatal("status reports hidden right after show")
	}

	visible, err := a.Toggle()
	if err != nil || visible {
		t.Fatalf("Toggle() = %v, %v; want false", visible, err)
	}
}

func TestMonitorsHonourScaleOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Display.ScaleFactor = 2
	a, _ := newApp(t, cfg, "")

	monitors, err := a.Monitors()
	if err != nil {
		t.Fatalf("Monitors: %v", err)
	}
	if len(monitors) != 1 {
		t.Fatalf("got %d monitors, want 1", len(monitors))
	}
	m := monitors[0]
	if m.Name != "HDMI-1" || m.Width != 1920 || m.ScaleFactor != 2 || !m.Primary {
		t.Fatalf("monitor = %+v", m)
	}
}

func TestApplyResizesVisiblePanel(t *testing.T) {
	a, _ := newApp(t, nil, "")
	mustInit(t, a)
	mustShow(t, a)

	var got []string
	a.OnReload(func(cfg *config.Config) { got = append(got, cfg.Hotkey) })

	cfg := config.DefaultConfig()
	cfg.Panel.Height = 200
	cfg.Hotkey = "Mod4-p"
	if err := a.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	status, err := a.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if g := status.Geometry; g == nil || g.Height != 200 || g.Y != 880 {
		t.Fatalf("geometry = %+v, want height 200 at y=880", g)
	}
	if want := []string{"Mod4-p"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaders saw %v, want %v", got, want)
	}
	if a.Hotkey() != "Mod4-p" {
		t.Fatalf("Hotkey() = %q", a.Hotkey())
	}
}

func TestApplyRejectsInvalidConfig(t *testing.T) {
	a, _ := newApp(t, nil, "")
	cfg := config.DefaultConfig()
	cfg.Panel.Height = 0
	if err := a.Apply(cfg); err == nil {
		t.Fatal("expected validation error")
	}
	if got := a.Config().Panel.Height; got != config.DefaultPanelHeight {
		t.Fatalf("height = %v after rejected apply, want %v", got, config.DefaultPanelHeight)
	}
}

func TestReloadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("panel:\n  height: 500\n"), 0644); err != nil {
		t.Fatal(err)
	}

	a, _ := newApp(t, nil, path)
	if err := a.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := a.Config().Panel.Height; got != 500 {
		t.Fatalf("height = %v, want 500", got)
	}

	if err := os.WriteFile(path, []byte("panel:\n  height: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Reload(); err == nil {
		t.Fatal("expected reload of invalid file to fail")
	}
	if got := a.Config().Panel.Height; got != 500 {
		t.Fatalf("height = %v after rejected reload, want 500", got)
	}
}

func TestDeactivateNotifiesListeners(t *testing.T) {
	a, backend := newApp(t, nil, "")

	var mu sync.Mutex
	var changes []bool
	a.OnChange(func(visible bool) {
		mu.Lock()
		changes = append(changes, visible)
		mu.Unlock()
	})
	mustInit(t, a)
	mustShow(t, a)

	if err := a.Loop().Do(func() error {
		backend.Deactivate()
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	visible, err := a.Visible()
	if err != nil || visible {
		t.Fatalf("Visible() = %v, %v; want false", visible, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []bool{true, false}; !reflect.DeepEqual(changes, want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
}

func TestDestroy(t *testing.T) {
	a, _ := newApp(t, nil, "")
	mustInit(t, a)
	for i := 0; i < 2; i++ {
		if err := a.Destroy(); err != nil {
			t.Fatalf("Destroy #%d: %v", i+1, err)
		}
	}

	if _, err := a.Toggle(); !errors.Is(err, panel.ErrSurfaceNotFound) {
		t.Fatalf("Toggle err = %v, want ErrSurfaceNotFound", err)
	}
	if err := a.Init(); !errors.Is(err, panel.ErrAlreadyCreated) {
		t.Fatalf("Init after Destroy err = %v, want ErrAlreadyCreated", err)
	}
}

func TestRequestShutdown(t *testing.T) {
	a, _ := newApp(t, nil, "")
	a.RequestShutdown()
	a.RequestShutdown()

	select {
	case <-a.ShutdownRequested():
	default:
		t.Fatal("shutdown channel not closed")
	}
}
