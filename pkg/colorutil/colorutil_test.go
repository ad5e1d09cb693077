package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#202020")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}, c)

	c, err = ParseHex("FFffFF")
	require.NoError(t, err)
	assert.Equal(t, White, c)

	c, err = ParseHex("#3b82f680")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x3B, G: 0x82, B: 0xF6, A: 0x80}, c)

	for _, bad := range []string{"", "#12345", "#12345G", "red", "#1234567"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestIntensity(t *testing.T) {
	assert.InDelta(t, 0, Intensity(Black), 0.5)
	assert.InDelta(t, 255, Intensity(White), 0.5)
	assert.InDelta(t, 100, Intensity(color.RGBA{R: 100, G: 100, B: 100, A: 255}), 0.5)
	// Mean of channels, not luma weighting.
	assert.InDelta(t, 85, Intensity(color.RGBA{R: 255, A: 255}), 0.5)
}
