package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

const iconSize = 22

var iconData = renderIcon(iconSize)

// renderIcon draws a clipboard glyph: a rounded board with a clip on top.
func renderIcon(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	board := color.NRGBA{R: 0xcd, G: 0xd6, B: 0xf4, A: 0xff}
	clip := color.NRGBA{R: 0x89, G: 0xb4, B: 0xfa, A: 0xff}

	pad := size / 6
	for y := pad + 1; y < size-1; y++ {
		for x := pad; x < size-pad; x++ {
			corner := (y == pad+1 || y == size-2) && (x == pad || x == size-pad-1)
			if !corner {
				img.SetNRGBA(x, y, board)
			}
		}
	}
	for y := 0; y < pad+3; y++ {
		for x := size/2 - size/6; x < size/2+size/6; x++ {
			img.SetNRGBA(x, y, clip)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
