package encode

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"

	"video-fingerprint/internal/media"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 50, A: 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{
		"png":  FormatPNG,
		"jpg":  FormatJPEG,
		"jpeg": FormatJPEG,
		"tif":  FormatTIFF,
		"tiff": FormatTIFF,
		"webp": FormatWebP,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseFormat("bmp")
	assert.ErrorIs(t, err, media.ErrInvalidConfiguration)
}

func TestEncodeRoundTrip(t *testing.T) {
	enc := NewFileEncoder(zap.NewNop())
	dir := t.TempDir()
	src := testImage()

	for _, tc := range []struct {
		format string
		decode func(f *os.File) (image.Image, error)
	}{
		{FormatPNG, func(f *os.File) (image.Image, error) { return png.Decode(f) }},
		{FormatJPEG, func(f *os.File) (image.Image, error) { return jpeg.Decode(f) }},
		{FormatTIFF, func(f *os.File) (image.Image, error) { return tiff.Decode(f) }},
	} {
		path := filepath.Join(dir, "out."+tc.format)
		err := enc.Encode(context.Background(), src, path, tc.format, 90)
		require.NoError(t, err, "format %s", tc.format)

		f, err := os.Open(path)
		require.NoError(t, err, "format %s", tc.format)
		decoded, err := tc.decode(f)
		f.Close()
		require.NoError(t, err, "format %s", tc.format)
		assert.Equal(t, src.Bounds().Dx(), decoded.Bounds().Dx(), "format %s", tc.format)
		assert.Equal(t, src.Bounds().Dy(), decoded.Bounds().Dy(), "format %s", tc.format)

		_, err = os.Stat(path + ".partial")
		assert.True(t, os.IsNotExist(err), "partial file must not survive, format %s", tc.format)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	enc := NewFileEncoder(zap.NewNop())
	path := filepath.Join(t.TempDir(), "out.gif")

	err := enc.Encode(context.Background(), testImage(), path, "gif", 90)
	assert.ErrorIs(t, err, media.ErrInvalidConfiguration)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncodeUnwritablePath(t *testing.T) {
	enc := NewFileEncoder(zap.NewNop())
	path := filepath.Join(t.TempDir(), "missing", "out.png")

	err := enc.Encode(context.Background(), testImage(), path, FormatPNG, 90)
	assert.ErrorIs(t, err, media.ErrEncodeFailed)
}

func TestEncodeCancelledContext(t *testing.T) {
	enc := NewFileEncoder(zap.NewNop())
	path := filepath.Join(t.TempDir(), "out.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := enc.Encode(ctx, testImage(), path, FormatPNG, 90)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
