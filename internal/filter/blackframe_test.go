package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-fingerprint/internal/media"
)

func solidFrame(ts float64, idx int, c color.Color) media.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	return media.Frame{Image: img, Timestamp: ts, Index: idx}
}

func frameSet(frames ...media.Frame) media.FrameSet {
	return media.FrameSet{Frames: frames, Requested: len(frames)}
}

func TestMeanIntensitySolidImages(t *testing.T) {
	black := solidFrame(0, 0, color.RGBA{0, 0, 0, 255})
	assert.InDelta(t, 0, MeanIntensity(black.Image), 0.5)

	white := solidFrame(0, 0, color.RGBA{255, 255, 255, 255})
	assert.InDelta(t, 255, MeanIntensity(white.Image), 0.5)

	gray := solidFrame(0, 0, color.RGBA{100, 100, 100, 255})
	assert.InDelta(t, 100, MeanIntensity(gray.Image), 0.5)
}

func TestIsBlack(t *testing.T) {
	dark := solidFrame(0, 0, color.RGBA{5, 5, 5, 255})
	assert.True(t, IsBlack(dark.Image, DefaultThreshold))

	dim := solidFrame(0, 0, color.RGBA{30, 30, 30, 255})
	assert.False(t, IsBlack(dim.Image, DefaultThreshold))

	assert.True(t, IsBlack(nil, DefaultThreshold))
}

func TestApplyDropsBlackFrames(t *testing.T) {
	// 12 frames, 2 black, target 10: the black ones go and the survivors fit
	// the target exactly.
	frames := make([]media.Frame, 0, 12)
	for i := 0; i < 12; i++ {
		c := color.RGBA{120, 120, 120, 255}
		if i == 3 || i == 7 {
			c = color.RGBA{2, 2, 2, 255}
		}
		frames = append(frames, solidFrame(float64(i), i, c))
	}

	res := Apply(frameSet(frames...), Options{Threshold: DefaultThreshold, Enabled: true, TargetCount: 10})
	assert.False(t, res.FellBack)
	assert.Equal(t, 2, res.BlackCount)
	require.Len(t, res.Frames.Frames, 10)
	for _, f := range res.Frames.Frames {
		assert.NotEqual(t, 3, f.Index)
		assert.NotEqual(t, 7, f.Index)
	}
}

func TestApplyFallsBackWhenAlmostAllBlack(t *testing.T) {
	// 20 frames, 19 black: filtering would collapse the timeline, so the
	// filter falls back to an even re-sample of the unfiltered set.
	frames := make([]media.Frame, 0, 20)
	for i := 0; i < 20; i++ {
		c := color.RGBA{1, 1, 1, 255}
		if i == 10 {
			c = color.RGBA{200, 60, 60, 255}
		}
		frames = append(frames, solidFrame(float64(i), i, c))
	}

	res := Apply(frameSet(frames...), Options{Threshold: DefaultThreshold, Enabled: true, TargetCount: 20})
	assert.True(t, res.FellBack)
	assert.Equal(t, 19, res.BlackCount)
	require.Len(t, res.Frames.Frames, 20)
	for i, f := range res.Frames.Frames {
		assert.Equal(t, i, f.Index, "fallback keeps the original order")
	}
}

func TestApplyFallsBackOnMajorityLoss(t *testing.T) {
	// 10 frames, 6 black, target 4: four survivors meet the target but the
	// loss exceeds half, so coverage wins and the filter falls back.
	frames := make([]media.Frame, 0, 10)
	for i := 0; i < 10; i++ {
		c := color.RGBA{3, 3, 3, 255}
		if i%3 == 0 {
			c = color.RGBA{150, 150, 150, 255}
		}
		frames = append(frames, solidFrame(float64(i), i, c))
	}

	res := Apply(frameSet(frames...), Options{Threshold: DefaultThreshold, Enabled: true, TargetCount: 4})
	assert.True(t, res.FellBack)
	assert.Equal(t, 6, res.BlackCount)
	assert.Len(t, res.Frames.Frames, 4)
}

func TestApplyDisabledTruncatesEvenly(t *testing.T) {
	frames := make([]media.Frame, 0, 12)
	for i := 0; i < 12; i++ {
		frames = append(frames, solidFrame(float64(i), i, color.RGBA{1, 1, 1, 255}))
	}

	res := Apply(frameSet(frames...), Options{Enabled: false, TargetCount: 6})
	assert.False(t, res.FellBack)
	assert.Equal(t, 0, res.BlackCount)
	require.Len(t, res.Frames.Frames, 6)
	assert.Equal(t, 0, res.Frames.Frames[0].Index)
	assert.Equal(t, 11, res.Frames.Frames[5].Index)
}

func TestApplyDeterminism(t *testing.T) {
	frames := make([]media.Frame, 0, 15)
	for i := 0; i < 15; i++ {
		c := color.RGBA{uint8(i * 16), uint8(i * 16), uint8(i * 16), 255}
		frames = append(frames, solidFrame(float64(i), i, c))
	}
	opts := Options{Threshold: DefaultThreshold, Enabled: true, TargetCount: 8}

	a := Apply(frameSet(frames...), opts)
	b := Apply(frameSet(frames...), opts)
	assert.Equal(t, a.BlackCount, b.BlackCount)
	require.Equal(t, len(a.Frames.Frames), len(b.Frames.Frames))
	for i := range a.Frames.Frames {
		assert.Equal(t, a.Frames.Frames[i].Index, b.Frames.Frames[i].Index)
	}
}
