// Package probe implements the metadata-probing collaborators.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/geometry"
)

// defaultFrameRate is assumed when the container reports no usable rate and
// the frame count must be estimated from the duration.
const defaultFrameRate = 24.0

// FFProbe reads metadata through the ffprobe binary.
type FFProbe struct {
	log *zap.Logger
}

// NewFFProbe creates an ffprobe-backed prober.
func NewFFProbe(log *zap.Logger) *FFProbe {
	return &FFProbe{log: log}
}

var _ media.Prober = (*FFProbe)(nil)

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		NBFrames   string `json:"nb_frames"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe on the file and extracts duration, resolution and frame
// count of the first video stream.
func (p *FFProbe) Probe(ctx context.Context, path string) (media.VideoMetadata, error) {
	timeout := time.Duration(0)
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	raw, err := ffmpeg.ProbeWithTimeout(path, timeout)
	if err != nil {
		return media.VideoMetadata{}, fmt.Errorf("%w: ffprobe %s: %v", media.ErrProbeFailed, path, err)
	}

	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return media.VideoMetadata{}, fmt.Errorf("%w: parse ffprobe output: %v", media.ErrProbeFailed, err)
	}

	meta, err := metadataFromProbe(out)
	if err != nil {
		return media.VideoMetadata{}, fmt.Errorf("%w: %s: %v", media.ErrProbeFailed, path, err)
	}

	p.log.Debug("probed video",
		zap.String("path", path),
		zap.Float64("duration", meta.Duration),
		zap.Int("frames", meta.FrameCount),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
	)
	return meta, nil
}

func metadataFromProbe(out probeOutput) (media.VideoMetadata, error) {
	var meta media.VideoMetadata

	found := false
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		found = true
		meta.Width = s.Width
		meta.Height = s.Height
		if n, err := strconv.Atoi(s.NBFrames); err == nil {
			meta.FrameCount = n
		}

		duration, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil || duration <= 0 {
			return meta, fmt.Errorf("no usable duration in container")
		}
		meta.Duration = duration

		if meta.FrameCount == 0 {
			meta.FrameCount = int(duration * frameRate(s.RFrameRate))
		}
		break
	}
	if !found {
		return meta, fmt.Errorf("no video stream found")
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return meta, fmt.Errorf("invalid resolution %dx%d", meta.Width, meta.Height)
	}

	meta.Aspect = geometry.NewAspectRatio(meta.Width, meta.Height)
	return meta, nil
}

// frameRate parses ffprobe's "num/den" rational rate.
func frameRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) != 2 {
		return defaultFrameRate
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 || num <= 0 {
		return defaultFrameRate
	}
	return num / den
}
