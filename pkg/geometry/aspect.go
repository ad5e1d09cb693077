package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatio is a width:height ratio in lowest terms.
type AspectRatio struct {
	W int `json:"w"`
	H int `json:"h"`
}

// NewAspectRatio creates an AspectRatio reduced to lowest terms.
func NewAspectRatio(w, h int) AspectRatio {
	if w > 0 && h > 0 {
		d := gcd(w, h)
		w /= d
		h /= d
	}
	return AspectRatio{W: w, H: h}
}

// ParseAspectRatio parses "W:H" (e.g. "16:9") into an AspectRatio.
func ParseAspectRatio(s string) (AspectRatio, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio %q, expected W:H", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return AspectRatio{}, fmt.Errorf("invalid aspect ratio height %q: %w", parts[1], err)
	}
	if w <= 0 || h <= 0 {
		return AspectRatio{}, fmt.Errorf("aspect ratio %q must be positive", s)
	}
	return NewAspectRatio(w, h), nil
}

// Valid returns true if both terms are positive.
func (a AspectRatio) Valid() bool {
	return a.W > 0 && a.H > 0
}

// Value returns the ratio as a float (width / height).
func (a AspectRatio) Value() float64 {
	if a.H == 0 {
		return 0
	}
	return float64(a.W) / float64(a.H)
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.W, a.H)
}

// FitCrop returns the largest centered sub-rectangle of a srcW x srcH image
// whose aspect ratio matches targetW:targetH. A source wider than the target
// ratio is cropped at the sides, a taller one at top and bottom.
func FitCrop(srcW, srcH, targetW, targetH int) RectInt {
	if srcW <= 0 || srcH <= 0 || targetW <= 0 || targetH <= 0 {
		return RectInt{}
	}

	// Compare srcW/srcH with targetW/targetH using cross multiplication to
	// stay in integer arithmetic.
	switch {
	case srcW*targetH > srcH*targetW:
		// Source is wider: crop sides.
		newW := srcH * targetW / targetH
		offset := (srcW - newW) / 2
		return RectInt{X: offset, Y: 0, Width: newW, Height: srcH}
	case srcW*targetH < srcH*targetW:
		// Source is taller: crop top and bottom.
		newH := srcW * targetH / targetW
		offset := (srcH - newH) / 2
		return RectInt{X: 0, Y: offset, Width: srcW, Height: newH}
	default:
		return RectInt{X: 0, Y: 0, Width: srcW, Height: srcH}
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
