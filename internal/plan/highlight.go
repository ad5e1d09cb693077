package plan

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"video-fingerprint/internal/media"
)

// Highlight sampling places extra frames around user-chosen moments. Zones
// around each highlight get boostFactor times their proportional share of the
// frame budget; remaining segments are sampled evenly as usual.

// maxZoneFraction caps a highlight zone radius at this fraction of the
// video duration.
const maxZoneFraction = 0.10

var (
	hmsPattern = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2}(?:\.\d+)?)$`)
	msPattern  = regexp.MustCompile(`^(\d+):(\d{1,2}(?:\.\d+)?)$`)
)

// ParseTimestamp parses "HH:MM:SS", "MM:SS" or raw seconds into seconds.
func ParseTimestamp(text string) (float64, error) {
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative timestamp %q", text)
		}
		return v, nil
	}

	if m := hmsPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		s, _ := strconv.ParseFloat(m[3], 64)
		return float64(h)*3600 + float64(mi)*60 + s, nil
	}

	if m := msPattern.FindStringSubmatch(text); m != nil {
		mi, _ := strconv.Atoi(m[1])
		s, _ := strconv.ParseFloat(m[2], 64)
		return float64(mi)*60 + s, nil
	}

	return 0, fmt.Errorf("unrecognised timestamp format %q", text)
}

// FormatTimestamp renders seconds as "M:SS" or "H:MM:SS".
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

type segment struct {
	start, end float64
	zone       bool
}

// WeightedTimestamps spreads targetCount samples across the duration with
// zones around each highlight receiving boostFactor times their proportional
// share. Zone radius is the smaller of half the gap to the neighboring
// highlight and 10% of the duration; overlapping zones merge. Within each
// segment, samples sit at even midpoints. The result is sorted.
//
// With no highlights or a non-positive boost this degrades to Timestamps.
func WeightedTimestamps(meta media.VideoMetadata, targetCount int, highlights []float64, boostFactor float64) (media.SampleRequest, error) {
	if targetCount <= 0 {
		return media.SampleRequest{}, fmt.Errorf("%w: target frame count %d must be positive",
			media.ErrInvalidConfiguration, targetCount)
	}
	if meta.Duration <= 0 {
		return media.SampleRequest{}, fmt.Errorf("%w: video duration %.3fs must be positive",
			media.ErrInvalidConfiguration, meta.Duration)
	}
	if len(highlights) == 0 || boostFactor <= 0 {
		return Timestamps(meta, targetCount)
	}

	segments := buildSegments(meta.Duration, highlights)

	var zoneDur, plainDur float64
	for _, seg := range segments {
		if seg.zone {
			zoneDur += seg.end - seg.start
		} else {
			plainDur += seg.end - seg.start
		}
	}
	totalWeighted := zoneDur*boostFactor + plainDur
	if totalWeighted <= 0 {
		return Timestamps(meta, targetCount)
	}

	// Allocate samples proportionally, then fix rounding drift on the
	// largest allocation.
	alloc := make([]int, len(segments))
	sum := 0
	for i, seg := range segments {
		weight := seg.end - seg.start
		if seg.zone {
			weight *= boostFactor
		}
		alloc[i] = int(math.Round(weight / totalWeighted * float64(targetCount)))
		sum += alloc[i]
	}
	if diff := targetCount - sum; diff != 0 {
		maxIdx := 0
		for i := range alloc {
			if alloc[i] > alloc[maxIdx] {
				maxIdx = i
			}
		}
		alloc[maxIdx] += diff
	}

	ts := make([]float64, 0, targetCount)
	for i, seg := range segments {
		n := alloc[i]
		if n <= 0 {
			continue
		}
		interval := (seg.end - seg.start) / float64(n)
		for j := 0; j < n; j++ {
			t := seg.start + interval*float64(j) + interval/2
			t = math.Min(t, meta.Duration-0.01)
			t = math.Max(t, 0)
			ts = append(ts, t)
		}
	}
	sort.Float64s(ts)

	return media.SampleRequest{Timestamps: ts}, nil
}

// buildSegments splits [0, duration) into alternating plain and highlight
// zone segments. Zones around close highlights are merged.
func buildSegments(duration float64, highlights []float64) []segment {
	sorted := append([]float64(nil), highlights...)
	sort.Float64s(sorted)

	maxRadius := maxZoneFraction * duration
	zones := make([]segment, 0, len(sorted))
	for i, ht := range sorted {
		radius := maxRadius
		if i > 0 {
			radius = math.Min(radius, (ht-sorted[i-1])/2)
		}
		if i < len(sorted)-1 {
			radius = math.Min(radius, (sorted[i+1]-ht)/2)
		}
		zones = append(zones, segment{
			start: math.Max(0, ht-radius),
			end:   math.Min(duration, ht+radius),
			zone:  true,
		})
	}

	merged := zones[:0]
	for _, z := range zones {
		if len(merged) > 0 && z.start <= merged[len(merged)-1].end {
			if z.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = z.end
			}
			continue
		}
		merged = append(merged, z)
	}

	segments := make([]segment, 0, 2*len(merged)+1)
	cursor := 0.0
	for _, z := range merged {
		if cursor < z.start {
			segments = append(segments, segment{start: cursor, end: z.start})
		}
		segments = append(segments, z)
		cursor = z.end
	}
	if cursor < duration {
		segments = append(segments, segment{start: cursor, end: duration})
	}
	return segments
}
