package x11

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgbutil/xprop"
)

// baseDPI is the X resolution that corresponds to a scale factor of 1.
const baseDPI = 96.0

// ScaleFactor returns the physical-to-logical pixel ratio for the screen.
// Xft.dpi from the root RESOURCE_MANAGER property wins, then GDK_SCALE,
// then 1.
func (c *Connection) ScaleFactor() float64 {
	resources, err := xprop.PropValStr(xprop.GetProperty(c.XUtil, c.Root, "RESOURCE_MANAGER"))
	if err == nil {
		if dpi, ok := ParseXftDPI(resources); ok {
			return dpi / baseDPI
		}
	}
	if scale, ok := parseScaleEnv(os.Getenv("GDK_SCALE")); ok {
		return scale
	}
	return 1
}

// ParseXftDPI extracts the Xft.dpi value from an X resource database
// string.
func ParseXftDPI(resources string) (float64, bool) {
	scanner := bufio.NewScanner(strings.NewReader(resources))
	for scanner.Scan() {
		name, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(name) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}

func parseScaleEnv(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	scale, err := strconv.ParseFloat(value, 64)
	if err != nil || scale <= 0 {
		return 0, false
	}
	return scale, true
}
