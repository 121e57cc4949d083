// Package colorutil provides shared color utilities for overlay rendering.
package colorutil

import (
	"image/color"
)

// Operator-status colors used by the detection overlay.
var (
	StatusOK       = color.RGBA{R: 0x2E, G: 0xA8, B: 0x43, A: 0xFF} // found, within tolerance
	StatusAdjust   = color.RGBA{R: 0xF2, G: 0xA6, B: 0x0C, A: 0xFF} // found, out of tolerance
	StatusNotFound = color.RGBA{R: 0xD6, G: 0x34, B: 0x34, A: 0xFF} // not found
	ExpectedMarker = color.RGBA{R: 0x40, G: 0x90, B: 0xE0, A: 0xC0} // expected-pose crosshair
)
