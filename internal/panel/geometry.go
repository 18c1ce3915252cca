// Package panel owns the floating overlay panel: where it goes, the window
// behind it, and its show/hide state machine.
package panel

import (
	"math"

	"github.com/macpaste/macpaste/internal/platform"
)

// DefaultHeight is the panel height in logical pixels.
const DefaultHeight = 340.0

// Display is a snapshot of a physical display.
type Display = platform.Display

// Geometry is a panel frame in logical pixels.
type Geometry struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Compute returns the frame of a panel of the given logical height anchored
// to the bottom edge of d and spanning its full width. A non-positive
// scale factor is treated as 1.
func Compute(d Display, height float64) Geometry {
	scale := d.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	originX := float64(d.Origin.X) / scale
	originY := float64(d.Origin.Y) / scale
	return Geometry{
		X:      originX,
		Y:      originY + float64(d.Size.Height)/scale - height,
		Width:  float64(d.Size.Width) / scale,
		Height: height,
	}
}

// Physical converts g to physical pixels, rounding to the nearest pixel.
func (g Geometry) Physical(scale float64) platform.Rect {
	if scale <= 0 {
		scale = 1
	}
	return platform.Rect{
		X:      int(math.Round(g.X * scale)),
		Y:      int(math.Round(g.Y * scale)),
		Width:  int(math.Round(g.Width * scale)),
		Height: int(math.Round(g.Height * scale)),
	}
}
