package x11

import (
	"testing"

	"github.com/BurntSushi/xgbutil/ewmh"
)

func TestPickDockMonitor(t *testing.T) {
	// Two 1920x1080 monitors side by side on a 3840x1080 root.
	monitors := []Monitor{
		{ID: 0, Name: "DP-1", X: 0, Y: 0, Width: 1920, Height: 1080},
		{ID: 1, Name: "HDMI-1", X: 1920, Y: 0, Width: 1920, Height: 1080},
	}
	const rootW, rootH = 3840, 1080

	tests := []struct {
		name   string
		struts []*ewmh.WmStrutPartial
		want   int
	}{
		{
			name: "no docks",
			want: -1,
		},
		{
			name: "bottom dock on second monitor",
			struts: []*ewmh.WmStrutPartial{
				{Bottom: 48, BottomStartX: 1920, BottomEndX: 3839},
			},
			want: 1,
		},
		{
			name: "top bar on first monitor",
			struts: []*ewmh.WmStrutPartial{
				{Top: 32, TopStartX: 0, TopEndX: 1919},
			},
			want: 0,
		},
		{
			name: "larger dock wins",
			struts: []*ewmh.WmStrutPartial{
				{Top: 24, TopStartX: 0, TopEndX: 1919},
				{Left: 64, LeftStartY: 0, LeftEndY: 1079},
				{Bottom: 48, BottomStartX: 1920, BottomEndX: 3839},
			},
			want: 0,
		},
		{
			name: "right strut lands on rightmost monitor",
			struts: []*ewmh.WmStrutPartial{
				{Right: 40, RightStartY: 0, RightEndY: 1079},
			},
			want: 1,
		},
		{
			name:   "plain strut spans all monitors",
			struts: []*ewmh.WmStrutPartial{fullStrut(&ewmh.WmStrut{Bottom: 30}, rootW, rootH)},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickDockMonitor(monitors, rootW, rootH, tt.struts)
			if got != tt.want {
				t.Fatalf("pickDockMonitor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIntersectionSize(t *testing.T) {
	got := intersectionSize(0, 0, 100, 100, 50, 80, 200, 200)
	if got.w != 50 || got.h != 20 {
		t.Fatalf("intersection = %+v, want 50x20", got)
	}
	if area := intersectionSize(0, 0, 10, 10, 20, 20, 30, 30).area(); area != 0 {
		t.Fatalf("disjoint area = %d, want 0", area)
	}
}

func TestPremultiply(t *testing.T) {
	tests := []struct {
		in   uint32
		want uint32
	}{
		{in: 0xff1e1e2e, want: 0xff1e1e2e},
		{in: 0x00ffffff, want: 0x00000000},
		{in: 0x80ff0000, want: 0x80800000},
		{in: 0xcc1e1e2e, want: 0xcc181824},
	}
	for _, tt := range tests {
		if got := Premultiply(tt.in); got != tt.want {
			t.Errorf("Premultiply(%#08x) = %#08x, want %#08x", tt.in, got, tt.want)
		}
	}
}

func TestClampDim(t *testing.T) {
	if got := clampDim(0); got != 1 {
		t.Fatalf("clampDim(0) = %d", got)
	}
	if got := clampDim(70000); got != 0xffff {
		t.Fatalf("clampDim(70000) = %d", got)
	}
	if got := clampDim(1920); got != 1920 {
		t.Fatalf("clampDim(1920) = %d", got)
	}
}
