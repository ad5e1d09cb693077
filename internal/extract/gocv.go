package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"video-fingerprint/internal/media"
)

// GoCV extracts frames through an OpenCV VideoCapture. The capture handle is
// not safe for concurrent seeks, so timestamps are read sequentially; OpenCV
// keeps the demuxer open across seeks, which makes this competitive with the
// subprocess backend for modest frame counts.
type GoCV struct {
	log *zap.Logger
}

// NewGoCV creates an OpenCV-backed extractor.
func NewGoCV(log *zap.Logger) *GoCV {
	return &GoCV{log: log}
}

var _ media.Extractor = (*GoCV)(nil)

// Extract seeks to each timestamp in order and decodes one frame. Timestamps
// that fail to decode become gaps in the returned FrameSet.
func (e *GoCV) Extract(ctx context.Context, path string, req media.SampleRequest) (media.FrameSet, error) {
	n := req.Count()
	if n == 0 {
		return media.FrameSet{}, fmt.Errorf("%w: empty sample request", media.ErrExtractionFailed)
	}

	vc, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return media.FrameSet{}, fmt.Errorf("%w: open %s: %v", media.ErrExtractionFailed, path, err)
	}
	defer vc.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	set := media.FrameSet{Requested: n}
	for i, ts := range req.Timestamps {
		if err := ctx.Err(); err != nil {
			return media.FrameSet{}, err
		}

		vc.Set(gocv.VideoCapturePosMsec, ts*1000)
		if ok := vc.Read(&mat); !ok || mat.Empty() {
			e.log.Warn("frame read failed", zap.Float64("timestamp", ts), zap.Int("index", i))
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			e.log.Warn("frame convert failed", zap.Float64("timestamp", ts), zap.Error(err))
			continue
		}
		set.Frames = append(set.Frames, media.Frame{Image: img, Timestamp: ts, Index: i})
	}
	set.SortByTimestamp()

	if set.Len() == 0 {
		return media.FrameSet{}, fmt.Errorf("%w: no frame could be decoded from %s",
			media.ErrExtractionFailed, path)
	}
	return set, nil
}
