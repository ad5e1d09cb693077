// Package plan computes the sample timestamps a fingerprint run requests
// from the extraction collaborator.
package plan

import (
	"fmt"
	"math"

	"video-fingerprint/internal/media"
)

// seekLead is subtracted from each interval midpoint so a forward-decoding
// extractor seeking to the timestamp lands on the midpoint frame rather than
// the one after it.
const seekLead = 0.5

// overSampleFactor is how many extra samples are requested when the
// black-frame filter is enabled, so its fallback never needs a second
// extraction pass.
const overSampleFactor = 1.2

// Timestamps divides the video duration into targetCount equal intervals and
// returns one timestamp per interval, placed at the interval midpoint (less
// the seek lead, clamped to the interval start). Sampling midpoints instead
// of interval starts avoids biasing toward shot transitions at interval
// boundaries.
//
// For durations too short to separate targetCount midpoints, timestamps may
// coincide; duplicates are returned as-is and downstream stages tolerate them.
func Timestamps(meta media.VideoMetadata, targetCount int) (media.SampleRequest, error) {
	if targetCount <= 0 {
		return media.SampleRequest{}, fmt.Errorf("%w: target frame count %d must be positive",
			media.ErrInvalidConfiguration, targetCount)
	}
	if meta.Duration <= 0 {
		return media.SampleRequest{}, fmt.Errorf("%w: video duration %.3fs must be positive",
			media.ErrInvalidConfiguration, meta.Duration)
	}

	interval := meta.Duration / float64(targetCount)
	ts := make([]float64, targetCount)
	for i := 0; i < targetCount; i++ {
		mid := (float64(2*i+1) * interval / 2) - seekLead
		start := float64(i) * interval
		if mid < start {
			mid = start
		}
		// Stay strictly inside the timeline.
		if limit := meta.Duration - 0.01; mid > limit {
			mid = math.Max(0, limit)
		}
		ts[i] = mid
	}
	return media.SampleRequest{Timestamps: ts}, nil
}

// OverSampleCount returns how many samples to request for a run that wants
// targetCount frames after black-frame filtering. The count is padded by
// overSampleFactor and capped by the reported total frame count when known.
func OverSampleCount(meta media.VideoMetadata, targetCount int) int {
	n := int(math.Ceil(float64(targetCount) * overSampleFactor))
	if meta.FrameCount > 0 && n > meta.FrameCount {
		n = meta.FrameCount
	}
	if n < targetCount {
		n = targetCount
	}
	return n
}
