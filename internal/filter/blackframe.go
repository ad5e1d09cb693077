// Package filter removes near-black frames from a sampled frame set while
// guaranteeing the surviving set still covers the full timeline.
package filter

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/colorutil"
)

// DefaultThreshold is the mean-intensity bound (0-255 scale) below which a
// frame counts as black.
const DefaultThreshold = 10.0

// maxLossFraction is the coverage loss beyond which the filtered result is
// discarded in favor of an even re-sample of the unfiltered set.
const maxLossFraction = 0.5

// sampleGrid bounds the per-frame intensity probe to a sampleGrid^2 pixel
// grid, so huge frames are not scanned in full.
const sampleGrid = 64

// Options configures one filter pass.
type Options struct {
	// Threshold is the black bound on the 0-255 mean-intensity scale.
	Threshold float64
	// Enabled short-circuits the pass when false.
	Enabled bool
	// TargetCount is how many frames the composition needs. The returned set
	// has exactly this length whenever at least TargetCount frames were
	// extracted.
	TargetCount int
}

// Result reports what a filter pass did.
type Result struct {
	Frames media.FrameSet
	// FellBack is true when coverage loss was too high and the filter result
	// was discarded for an even re-sample of the unfiltered frames.
	FellBack bool
	// BlackCount is the number of frames under the threshold.
	BlackCount int
}

// Apply removes black frames and enforces the coverage fallback: when fewer
// than TargetCount frames survive, or more than half of the input frames
// were classified black, the filtered result is discarded and TargetCount
// frames are re-sampled evenly from the unfiltered input. The pass is
// deterministic and never requests new extraction; over-sampling upstream
// (plan.OverSampleCount) supplies the slack it works with.
func Apply(set media.FrameSet, opts Options) Result {
	if !opts.Enabled {
		return Result{Frames: evenSubset(set, opts.TargetCount)}
	}

	kept := make([]media.Frame, 0, len(set.Frames))
	black := 0
	for _, f := range set.Frames {
		if IsBlack(f.Image, opts.Threshold) {
			black++
			continue
		}
		kept = append(kept, f)
	}

	loss := 0.0
	if len(set.Frames) > 0 {
		loss = float64(black) / float64(len(set.Frames))
	}

	if len(kept) < opts.TargetCount || loss > maxLossFraction {
		// Too sparse to represent the timeline: ignore darkness entirely.
		return Result{
			Frames:     evenSubset(set, opts.TargetCount),
			FellBack:   true,
			BlackCount: black,
		}
	}

	filtered := media.FrameSet{Frames: kept, Requested: set.Requested}
	return Result{
		Frames:     evenSubset(filtered, opts.TargetCount),
		BlackCount: black,
	}
}

// IsBlack reports whether the mean pixel intensity of the image falls below
// threshold (0-255 scale). Large frames are probed on a coarse grid.
func IsBlack(img image.Image, threshold float64) bool {
	if img == nil {
		return true
	}
	return MeanIntensity(img) < threshold
}

// MeanIntensity returns the mean RGB intensity of the image on a 0-255
// scale, sampled on a grid of at most sampleGrid x sampleGrid pixels.
func MeanIntensity(img image.Image) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	strideX := int(math.Max(1, float64(w)/sampleGrid))
	strideY := int(math.Max(1, float64(h)/sampleGrid))

	samples := make([]float64, 0, (w/strideX+1)*(h/strideY+1))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += strideY {
		for x := bounds.Min.X; x < bounds.Max.X; x += strideX {
			samples = append(samples, colorutil.Intensity(img.At(x, y)))
		}
	}
	return stat.Mean(samples, nil)
}

// evenSubset picks count evenly-spaced frames from the set, preserving full
// timeline coverage. Sets at or under count are returned whole.
func evenSubset(set media.FrameSet, count int) media.FrameSet {
	n := len(set.Frames)
	if count <= 0 || n <= count {
		return set
	}

	picked := make([]media.Frame, count)
	if count == 1 {
		picked[0] = set.Frames[0]
	} else {
		for i := 0; i < count; i++ {
			idx := int(math.Round(float64(i) * float64(n-1) / float64(count-1)))
			picked[i] = set.Frames[idx]
		}
	}
	return media.FrameSet{Frames: picked, Requested: set.Requested}
}
