package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAspectRatio(t *testing.T) {
	r, err := ParseAspectRatio("16:9")
	require.NoError(t, err)
	assert.Equal(t, AspectRatio{W: 16, H: 9}, r)

	r, err = ParseAspectRatio(" 4 : 3 ")
	require.NoError(t, err)
	assert.Equal(t, AspectRatio{W: 4, H: 3}, r)

	// Reduced to lowest terms.
	r, err = ParseAspectRatio("1920:1080")
	require.NoError(t, err)
	assert.Equal(t, AspectRatio{W: 16, H: 9}, r)

	for _, bad := range []string{"", "16", "16:", "16:0", "-16:9", "a:b", "16:9:4"} {
		_, err := ParseAspectRatio(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNewAspectRatioReduces(t *testing.T) {
	assert.Equal(t, AspectRatio{W: 16, H: 9}, NewAspectRatio(3840, 2160))
	assert.Equal(t, AspectRatio{W: 1, H: 1}, NewAspectRatio(512, 512))
	assert.InDelta(t, 16.0/9.0, NewAspectRatio(1920, 1080).Value(), 1e-12)
}

func TestFitCropWiderSource(t *testing.T) {
	// 2:1 source into a square target: sides are cropped symmetrically.
	crop := FitCrop(200, 100, 50, 50)
	assert.Equal(t, RectInt{X: 50, Y: 0, Width: 100, Height: 100}, crop)
}

func TestFitCropTallerSource(t *testing.T) {
	// 2:3 source into 16:9: top and bottom are cropped.
	crop := FitCrop(400, 600, 16, 9)
	assert.Equal(t, 400, crop.Width)
	assert.Equal(t, 225, crop.Height)
	assert.Equal(t, 0, crop.X)
	assert.Equal(t, (600-225)/2, crop.Y)
}

func TestFitCropExactRatioIsIdentity(t *testing.T) {
	crop := FitCrop(1920, 1080, 16, 9)
	assert.Equal(t, RectInt{X: 0, Y: 0, Width: 1920, Height: 1080}, crop)
}

// Cropping to ratio R then resizing to a rectangle of ratio R leaves no
// letterboxing: the crop itself already has the target ratio for any source
// shape wider or taller than the target.
func TestFitCropMatchesTargetRatio(t *testing.T) {
	cases := []struct{ srcW, srcH, tw, th int }{
		{1920, 1080, 1, 1},
		{1080, 1920, 16, 9},
		{640, 480, 16, 9},
		{480, 640, 4, 3},
		{333, 777, 3, 2},
	}
	for _, c := range cases {
		crop := FitCrop(c.srcW, c.srcH, c.tw, c.th)
		require.False(t, crop.Empty(), "case %+v", c)
		// Exact match up to integer truncation of one pixel.
		got := float64(crop.Width) / float64(crop.Height)
		want := float64(c.tw) / float64(c.th)
		assert.InDelta(t, want, got, want*0.02, "case %+v", c)
		// Crop stays inside the source.
		assert.GreaterOrEqual(t, crop.X, 0)
		assert.GreaterOrEqual(t, crop.Y, 0)
		assert.LessOrEqual(t, crop.X+crop.Width, c.srcW)
		assert.LessOrEqual(t, crop.Y+crop.Height, c.srcH)
	}
}

func TestRectIntInset(t *testing.T) {
	r := NewRectInt(10, 20, 100, 50)
	assert.Equal(t, RectInt{X: 14, Y: 24, Width: 92, Height: 42}, r.Inset(4))
	assert.True(t, r.Inset(30).Empty())
}

func TestRectIntCenterAndArea(t *testing.T) {
	r := NewRectInt(0, 0, 100, 50)
	assert.Equal(t, Point2D{X: 50, Y: 25}, r.Center())
	assert.Equal(t, 5000, r.Area())
	assert.Equal(t, 0, RectInt{}.Area())
}
