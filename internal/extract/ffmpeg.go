// Package extract implements the frame-extraction collaborators.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"runtime"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"video-fingerprint/internal/media"
)

// DefaultRetries is how many additional attempts a failed timestamp gets.
// Retries cover transient decode errors only; a timestamp that keeps failing
// becomes a gap in the returned FrameSet.
const DefaultRetries = 2

// FFmpeg extracts one frame per timestamp by input-seeking ffmpeg and
// decoding a single PNG from a pipe. Timestamps are fetched concurrently and
// reassembled into timeline order.
type FFmpeg struct {
	workers int
	retries int
	log     *zap.Logger
}

// NewFFmpeg creates an ffmpeg-backed extractor. workers <= 0 means one
// worker per CPU; retries < 0 means DefaultRetries.
func NewFFmpeg(workers, retries int, log *zap.Logger) *FFmpeg {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if retries < 0 {
		retries = DefaultRetries
	}
	return &FFmpeg{workers: workers, retries: retries, log: log}
}

var _ media.Extractor = (*FFmpeg)(nil)

// Extract fans the requested timestamps out over the worker pool. Failed
// timestamps are reported as gaps (FrameSet.Missing), not silently dropped.
// It fails with ErrExtractionFailed only when no frame could be decoded.
func (e *FFmpeg) Extract(ctx context.Context, path string, req media.SampleRequest) (media.FrameSet, error) {
	n := req.Count()
	if n == 0 {
		return media.FrameSet{}, fmt.Errorf("%w: empty sample request", media.ErrExtractionFailed)
	}

	type job struct {
		index int
		ts    float64
	}

	jobs := make(chan job)
	results := make([]*media.Frame, n)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					return
				}
				img, err := e.captureWithRetry(ctx, path, j.ts)
				if err != nil {
					e.log.Warn("frame extraction gave up",
						zap.Float64("timestamp", j.ts),
						zap.Int("index", j.index),
						zap.Error(err),
					)
					continue
				}
				results[j.index] = &media.Frame{Image: img, Timestamp: j.ts, Index: j.index}
			}
		}()
	}

feed:
	for i, ts := range req.Timestamps {
		select {
		case jobs <- job{index: i, ts: ts}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return media.FrameSet{}, err
	}

	set := media.FrameSet{Requested: n}
	for _, f := range results {
		if f != nil {
			set.Frames = append(set.Frames, *f)
		}
	}
	set.SortByTimestamp()

	if set.Len() == 0 {
		return media.FrameSet{}, fmt.Errorf("%w: no frame could be decoded from %s",
			media.ErrExtractionFailed, path)
	}
	if set.Missing() > 0 {
		e.log.Warn("partial extraction",
			zap.Int("requested", n),
			zap.Int("decoded", set.Len()),
		)
	}
	return set, nil
}

func (e *FFmpeg) captureWithRetry(ctx context.Context, path string, ts float64) (image.Image, error) {
	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := captureFrame(path, ts)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if attempt < e.retries {
			e.log.Debug("retrying frame extraction",
				zap.Float64("timestamp", ts),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
		}
	}
	return nil, lastErr
}

// captureFrame seeks to ts and decodes exactly one frame as PNG from a pipe.
func captureFrame(path string, ts float64) (image.Image, error) {
	buf := &bytes.Buffer{}
	err := ffmpeg.Input(path, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.3f", ts)}).
		Output("pipe:", ffmpeg.KwArgs{
			"vframes": 1,
			"format":  "image2",
			"vcodec":  "png",
		}).
		WithOutput(buf, io.Discard).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg seek %.3fs: %w", ts, err)
	}

	img, err := png.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decode frame at %.3fs: %w", ts, err)
	}
	return img, nil
}
