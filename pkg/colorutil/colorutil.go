// Package colorutil provides shared color utilities for the fingerprint generator.
package colorutil

import (
	"fmt"
	"image/color"
	"strings"
)

// Common colors used throughout the application.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Gray  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// ParseHex parses a hex color string in #RRGGBB or #RRGGBBAA form.
// The leading '#' is optional.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q, expected RRGGBB or RRGGBBAA", s)
	}

	var vals [4]uint8
	vals[3] = 0xFF
	for i := 0; i*2 < len(s); i++ {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
		vals[i] = hi<<4 | lo
	}
	return color.RGBA{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
}

// Intensity returns the mean of the R, G and B channels on a 0-255 scale.
func Intensity(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (float64(r) + float64(g) + float64(b)) / 3.0 / 257.0
}

func hexNibble(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
