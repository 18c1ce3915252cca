package panel

// ResolvePrimary picks the display that hosts the panel: the one flagged
// primary, else the first one. It reports false for an empty list.
func ResolvePrimary(displays []Display) (Display, bool) {
	for _, d := range displays {
		if d.Primary {
			return d, true
		}
	}
	if len(displays) == 0 {
		return Display{}, false
	}
	return displays[0], true
}
