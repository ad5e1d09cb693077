// Package encode writes the finished canvas to disk.
package encode

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/chai2010/webp"
	"go.uber.org/zap"
	"golang.org/x/image/tiff"

	"video-fingerprint/internal/media"
)

// Formats supported for output.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatTIFF = "tiff"
	FormatWebP = "webp"
)

// ParseFormat normalizes a format name or file extension.
func ParseFormat(s string) (string, error) {
	switch s {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: unsupported output format %q", media.ErrInvalidConfiguration, s)
	}
}

// FileEncoder writes images to regular files. The encode goes to a temporary
// sibling first and is renamed into place, so a failed run never leaves a
// partial output file.
type FileEncoder struct {
	log *zap.Logger
}

// NewFileEncoder creates a file-backed encoder.
func NewFileEncoder(log *zap.Logger) *FileEncoder {
	return &FileEncoder{log: log}
}

var _ media.Encoder = (*FileEncoder)(nil)

// Encode writes img to path in the given format. Quality (1-100) applies to
// jpeg and webp only.
func (e *FileEncoder) Encode(ctx context.Context, img image.Image, path, format string, quality int) error {
	format, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", media.ErrEncodeFailed, tmp, err)
	}

	if err := writeImage(f, img, format, quality); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: encode %s: %v", media.ErrEncodeFailed, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", media.ErrEncodeFailed, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", media.ErrEncodeFailed, path, err)
	}

	e.log.Info("wrote output image",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return nil
}

func writeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
