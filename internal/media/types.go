// Package media defines the data model shared across the fingerprint
// pipeline and the interfaces of the external probe, extraction and
// encoding collaborators.
package media

import (
	"image"
	"sort"

	"video-fingerprint/pkg/geometry"
)

// VideoMetadata describes a probed video file. Produced once per run and
// read-only afterwards.
type VideoMetadata struct {
	Duration   float64 // seconds, > 0
	FrameCount int     // total frames; 0 when the container could not report it
	Width      int
	Height     int
	Aspect     geometry.AspectRatio // native ratio in lowest terms
}

// SampleRequest is the ordered list of timestamps (seconds) to extract.
// Timestamps are non-decreasing and fall within [0, duration). Duplicates are
// legal for very short videos.
type SampleRequest struct {
	Timestamps []float64
}

// Count returns the number of requested samples.
func (r SampleRequest) Count() int {
	return len(r.Timestamps)
}

// Frame is a decoded raster image tagged with its timeline position.
type Frame struct {
	Image     image.Image
	Timestamp float64 // seconds into the video
	Index     int     // ordinal of the originating sample request
}

// FrameSet is an ordered collection of frames in timeline order. Requested
// records how many samples were asked for, so missing frames (extraction
// gaps) stay visible to the filter stage.
type FrameSet struct {
	Frames    []Frame
	Requested int
}

// Len returns the number of frames present.
func (s FrameSet) Len() int {
	return len(s.Frames)
}

// Missing returns the number of requested samples that yielded no frame.
func (s FrameSet) Missing() int {
	if s.Requested <= len(s.Frames) {
		return 0
	}
	return s.Requested - len(s.Frames)
}

// SortByTimestamp orders frames by timestamp, breaking ties by sample index.
// Extraction may complete out of order; the timeline order is restored here.
func (s *FrameSet) SortByTimestamp() {
	sort.SliceStable(s.Frames, func(i, j int) bool {
		if s.Frames[i].Timestamp != s.Frames[j].Timestamp {
			return s.Frames[i].Timestamp < s.Frames[j].Timestamp
		}
		return s.Frames[i].Index < s.Frames[j].Index
	})
}
