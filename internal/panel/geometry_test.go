package panel

import (
	"math"
	"testing"

	"github.com/macpaste/macpaste/internal/platform"
)

func display(w, h, x, y int, scale float64) Display {
	return Display{
		Size:        platform.Size{Width: w, Height: h},
		Origin:      platform.Point{X: x, Y: y},
		ScaleFactor: scale,
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeRetinaScenario(t *testing.T) {
	g := Compute(display(1920, 1080, 0, 0, 2.0), 340)

	if want := (Geometry{X: 0, Y: 200, Width: 960, Height: 340}); g != want {
		t.Fatalf("Compute() = %+v, want %+v", g, want)
	}
	if got, want := g.Physical(2.0), (platform.Rect{X: 0, Y: 400, Width: 1920, Height: 680}); got != want {
		t.Fatalf("Physical(2) = %+v, want %+v", got, want)
	}
}

func TestComputeProperties(t *testing.T) {
	displays := []Display{
		display(1920, 1080, 0, 0, 1),
		display(2560, 1440, 1920, 0, 1.25),
		display(3840, 2160, 0, 1080, 1.5),
		display(1366, 768, -1366, 200, 1),
		display(2880, 1800, 5000, 0, 2),
		display(1280, 1024, 0, 0, 0.75),
	}

	for _, d := range displays {
		g := Compute(d, DefaultHeight)

		if !near(float64(d.Size.Width), g.Width*d.ScaleFactor) {
			t.Errorf("%+v: width %v does not span the display", d, g.Width)
		}
		if g.Height != DefaultHeight {
			t.Errorf("%+v: height = %v, want %v", d, g.Height, DefaultHeight)
		}
		if !near(float64(d.Origin.X)/d.ScaleFactor, g.X) {
			t.Errorf("%+v: x = %v, not at the left edge", d, g.X)
		}

		bottom := float64(d.Origin.Y)/d.ScaleFactor + float64(d.Size.Height)/d.ScaleFactor
		if !near(bottom, g.Y+g.Height) {
			t.Errorf("%+v: bottom = %v, want %v", d, g.Y+g.Height, bottom)
		}
	}
}

func TestComputeNonPositiveScaleFallsBackToOne(t *testing.T) {
	g := Compute(display(800, 600, 10, 20, 0), 100)
	if want := (Geometry{X: 10, Y: 520, Width: 800, Height: 100}); g != want {
		t.Fatalf("Compute() = %+v, want %+v", g, want)
	}
}

func TestPhysicalRounds(t *testing.T) {
	g := Geometry{X: 0.4, Y: 10.6, Width: 100.5, Height: 33.3}

	tests := []struct {
		scale float64
		want  platform.Rect
	}{
		{1.5, platform.Rect{X: 1, Y: 16, Width: 151, Height: 50}},
		{0, platform.Rect{X: 0, Y: 11, Width: 101, Height: 33}},
	}
	for _, tt := range tests {
		if got := g.Physical(tt.scale); got != tt.want {
			t.Errorf("Physical(%v) = %+v, want %+v", tt.scale, got, tt.want)
		}
	}
}

func TestResolvePrimary(t *testing.T) {
	first := Display{ID: 0, Name: "DP-1"}
	second := Display{ID: 1, Name: "HDMI-1", Primary: true}

	tests := []struct {
		name     string
		displays []Display
		want     Display
		wantOK   bool
	}{
		{name: "empty", displays: nil},
		{name: "primary second in list", displays: []Display{first, second}, want: second, wantOK: true},
		{name: "primary first in list", displays: []Display{second, first}, want: second, wantOK: true},
		{name: "no primary falls back to first", displays: []Display{first, {ID: 2}}, want: first, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolvePrimary(tt.displays)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("ResolvePrimary() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
