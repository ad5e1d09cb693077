package probe

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/geometry"
)

// GoCV reads metadata through an OpenCV VideoCapture, for hosts without the
// ffmpeg binaries on PATH.
type GoCV struct {
	log *zap.Logger
}

// NewGoCV creates an OpenCV-backed prober.
func NewGoCV(log *zap.Logger) *GoCV {
	return &GoCV{log: log}
}

var _ media.Prober = (*GoCV)(nil)

// Probe opens the file and reads the capture properties.
func (p *GoCV) Probe(ctx context.Context, path string) (media.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return media.VideoMetadata{}, err
	}

	vc, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return media.VideoMetadata{}, fmt.Errorf("%w: open %s: %v", media.ErrProbeFailed, path, err)
	}
	defer vc.Close()

	frames := vc.Get(gocv.VideoCaptureFrameCount)
	fps := vc.Get(gocv.VideoCaptureFPS)
	width := int(vc.Get(gocv.VideoCaptureFrameWidth))
	height := int(vc.Get(gocv.VideoCaptureFrameHeight))

	if fps <= 0 || frames <= 0 {
		return media.VideoMetadata{}, fmt.Errorf("%w: %s reports no frame rate or frame count",
			media.ErrProbeFailed, path)
	}
	if width <= 0 || height <= 0 {
		return media.VideoMetadata{}, fmt.Errorf("%w: %s reports resolution %dx%d",
			media.ErrProbeFailed, path, width, height)
	}

	meta := media.VideoMetadata{
		Duration:   frames / fps,
		FrameCount: int(frames),
		Width:      width,
		Height:     height,
		Aspect:     geometry.NewAspectRatio(width, height),
	}

	p.log.Debug("probed video",
		zap.String("path", path),
		zap.String("backend", "gocv"),
		zap.Float64("duration", meta.Duration),
		zap.Int("frames", meta.FrameCount),
	)
	return meta, nil
}
