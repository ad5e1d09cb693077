package media

import (
	"context"
	"image"
)

// Prober reads metadata from a video file.
type Prober interface {
	Probe(ctx context.Context, path string) (VideoMetadata, error)
}

// Extractor decodes one frame per requested timestamp. Implementations must
// return frames in timeline order and must report timestamps that failed as
// gaps (Requested > len(Frames)) rather than dropping them silently. An
// all-timestamps failure returns an error wrapping ErrExtractionFailed.
type Extractor interface {
	Extract(ctx context.Context, path string, req SampleRequest) (FrameSet, error)
}

// Encoder writes a finished canvas to disk. Quality applies to lossy formats
// only. A failed encode must not leave a partial file behind.
type Encoder interface {
	Encode(ctx context.Context, img image.Image, path, format string, quality int) error
}
