package pipeline

import (
	"context"
	"image"
	"image/color"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"video-fingerprint/internal/config"
	"video-fingerprint/internal/layout"
	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/geometry"
)

type fakeProber struct {
	meta  media.VideoMetadata
	calls int
}

func (f *fakeProber) Probe(ctx context.Context, path string) (media.VideoMetadata, error) {
	f.calls++
	return f.meta, nil
}

// fakeExtractor produces one solid frame per requested timestamp; brightness
// encodes the timeline position so assignment tests can tell frames apart.
type fakeExtractor struct {
	calls int
	last  media.SampleRequest
}

func (f *fakeExtractor) Extract(ctx context.Context, path string, req media.SampleRequest) (media.FrameSet, error) {
	f.calls++
	f.last = req

	set := media.FrameSet{Requested: req.Count()}
	for i, ts := range req.Timestamps {
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		shade := uint8(40 + i*4)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				img.SetRGBA(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
			}
		}
		set.Frames = append(set.Frames, media.Frame{Image: img, Timestamp: ts, Index: i})
	}
	return set, nil
}

type fakeEncoder struct {
	calls  int
	path   string
	format string
	bounds image.Rectangle
}

func (f *fakeEncoder) Encode(ctx context.Context, img image.Image, path, format string, quality int) error {
	f.calls++
	f.path = path
	f.format = format
	f.bounds = img.Bounds()
	return nil
}

func testMeta() media.VideoMetadata {
	return media.VideoMetadata{
		Duration:   120,
		FrameCount: 2880,
		Width:      1920,
		Height:     1080,
		Aspect:     geometry.AspectRatio{W: 16, H: 9},
	}
}

func newTestPipeline(prober *fakeProber, extractor *fakeExtractor, encoder *fakeEncoder) *Pipeline {
	return New(prober, extractor, encoder, zap.NewNop(), nil)
}

func TestRunUniformGrid(t *testing.T) {
	prober := &fakeProber{meta: testMeta()}
	extractor := &fakeExtractor{}
	encoder := &fakeEncoder{}
	p := newTestPipeline(prober, extractor, encoder)

	comp := config.Default()
	comp.Rows, comp.Cols = 2, 2
	comp.OutputWidth = 640

	res, err := p.Run(context.Background(), "in.mp4", "out.png", comp)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Cells)
	assert.Equal(t, 4, res.Frames)
	assert.False(t, res.FellBack)
	assert.Equal(t, "out.png", res.OutputPath)

	assert.Equal(t, 1, prober.calls)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, 4, extractor.last.Count())
	assert.Equal(t, 1, encoder.calls)
	assert.Equal(t, "png", encoder.format)
	// 2x2 grid of 16:9 cells on a 640-wide canvas.
	assert.Equal(t, image.Rect(0, 0, 640, 360), encoder.bounds)
}

func TestRunInvalidConfigFailsBeforeProbe(t *testing.T) {
	prober := &fakeProber{meta: testMeta()}
	p := newTestPipeline(prober, &fakeExtractor{}, &fakeEncoder{})

	comp := config.Default()
	comp.Rows = 0

	_, err := p.Run(context.Background(), "in.mp4", "out.png", comp)
	assert.ErrorIs(t, err, media.ErrInvalidConfiguration)
	assert.Equal(t, 0, prober.calls)
}

func TestRunQuadtree(t *testing.T) {
	extractor := &fakeExtractor{}
	encoder := &fakeEncoder{}
	p := newTestPipeline(&fakeProber{meta: testMeta()}, extractor, encoder)

	comp := config.Default()
	comp.GridMode = config.ModeQuadtree
	comp.MaxDepth = 2
	comp.Policy = "balanced"
	comp.OutputWidth = 1280

	res, err := p.Run(context.Background(), "in.mp4", "out.png", comp)
	require.NoError(t, err)
	assert.Equal(t, 16, res.Cells)
	assert.Equal(t, 16, extractor.last.Count())
	assert.Equal(t, 1, encoder.calls)
}

func TestRunOverSamplesForBlackFilter(t *testing.T) {
	extractor := &fakeExtractor{}
	p := newTestPipeline(&fakeProber{meta: testMeta()}, extractor, &fakeEncoder{})

	comp := config.Default()
	comp.Rows, comp.Cols = 3, 3
	comp.SkipBlackFrames = true
	comp.OutputWidth = 640

	res, err := p.Run(context.Background(), "in.mp4", "out.png", comp)
	require.NoError(t, err)

	// 9 cells padded by the over-sampling factor, filtered back to 9.
	assert.Equal(t, 11, extractor.last.Count())
	assert.Equal(t, 9, res.Frames)
}

func TestRunCancelledContext(t *testing.T) {
	encoder := &fakeEncoder{}
	p := newTestPipeline(&fakeProber{meta: testMeta()}, &fakeExtractor{}, encoder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "in.mp4", "out.png", config.Default())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, encoder.calls)
}

func TestRunReportsProgressInStageOrder(t *testing.T) {
	var seen []Stage
	progress := func(s Stage, done, total int) {
		seen = append(seen, s)
		assert.Equal(t, len(Stages), total)
		assert.Equal(t, len(seen), done)
	}
	p := New(&fakeProber{meta: testMeta()}, &fakeExtractor{}, &fakeEncoder{}, zap.NewNop(), progress)

	comp := config.Default()
	comp.Rows, comp.Cols = 2, 2

	_, err := p.Run(context.Background(), "in.mp4", "out.png", comp)
	require.NoError(t, err)
	assert.Equal(t, Stages, seen)
}

func TestPromoteHighlightsKeepsBijection(t *testing.T) {
	lay, err := layout.Quadtree(geometry.NewRectInt(0, 0, 1024, 1024), 3, layout.PolicyRandom, 7)
	require.NoError(t, err)
	order, err := layout.Order(lay, layout.KindRow, 7)
	require.NoError(t, err)

	frames := media.FrameSet{Requested: lay.Len()}
	for i := 0; i < lay.Len(); i++ {
		frames.Frames = append(frames.Frames, media.Frame{Timestamp: float64(i * 5), Index: i})
	}

	highlights := []float64{12, 61, 200}
	promoted := promoteHighlights(order, lay, frames, highlights)

	require.Len(t, promoted, len(order))
	check := append([]int(nil), promoted...)
	sort.Ints(check)
	for i, v := range check {
		require.Equal(t, i, v, "promotion broke the permutation")
	}

	// The frame nearest the first highlight must sit in one of the largest
	// cells.
	targets := lay.LargestCells(len(highlights))
	rank := nearestFrameRank(frames, highlights[0])
	assert.Contains(t, targets, promoted[rank])
}

func TestNearestFrameRank(t *testing.T) {
	frames := media.FrameSet{Frames: []media.Frame{
		{Timestamp: 0}, {Timestamp: 10}, {Timestamp: 20},
	}}
	assert.Equal(t, 0, nearestFrameRank(frames, 2))
	assert.Equal(t, 1, nearestFrameRank(frames, 9))
	assert.Equal(t, 2, nearestFrameRank(frames, 500))
	assert.Equal(t, -1, nearestFrameRank(media.FrameSet{}, 5))
}
