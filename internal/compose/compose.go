// Package compose renders the final fingerprint canvas: it pairs frames with
// layout cells by fill order and crops, resizes and pastes each frame into
// its cell.
package compose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"runtime"
	"sync"

	xdraw "golang.org/x/image/draw"

	"video-fingerprint/internal/layout"
	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/colorutil"
	"video-fingerprint/pkg/geometry"
)

// LabelMode selects the per-cell label.
type LabelMode int

const (
	// LabelNone draws no label.
	LabelNone LabelMode = iota
	// LabelFrameNumber draws the 1-based assignment rank.
	LabelFrameNumber
	// LabelTimestamp draws the frame's timeline position.
	LabelTimestamp
)

// ParseLabelMode parses a label mode name.
func ParseLabelMode(s string) (LabelMode, error) {
	switch s {
	case "none", "":
		return LabelNone, nil
	case "number", "frame-number":
		return LabelFrameNumber, nil
	case "timestamp":
		return LabelTimestamp, nil
	default:
		return 0, fmt.Errorf("%w: unknown label mode %q", media.ErrInvalidConfiguration, s)
	}
}

// Config is the styling applied while compositing.
type Config struct {
	Background   color.Color
	Gap          int // inset per cell side, px
	BorderRadius int // rounded-corner radius, px
	Label        LabelMode
	Workers      int // <= 0 means one per CPU
}

// Compose allocates the canvas and renders one frame per cell. Frame r (in
// timeline order) lands in cell order[r]. Cells never overlap, so the
// per-cell work runs on a bounded worker pool writing disjoint canvas
// regions; the pool is joined before the canvas is returned.
//
// Fails with ErrInsufficientFrames when fewer frames than cells are
// available; frames beyond the cell count are ignored.
func Compose(ctx context.Context, frames media.FrameSet, l layout.Layout, order []int, cfg Config) (*image.RGBA, error) {
	if len(order) != l.Len() {
		return nil, fmt.Errorf("%w: fill order covers %d of %d cells",
			media.ErrInvalidConfiguration, len(order), l.Len())
	}
	if frames.Len() < l.Len() {
		return nil, fmt.Errorf("%w: %d frames for %d cells",
			media.ErrInsufficientFrames, frames.Len(), l.Len())
	}

	bg := cfg.Background
	if bg == nil {
		bg = colorutil.Black
	}

	canvas := image.NewRGBA(image.Rect(0, 0, l.Canvas.Width, l.Canvas.Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type task struct {
		rank int
		cell layout.Cell
	}

	tasks := make(chan task)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	// Workers keep draining tasks after a failure so the feeder below never
	// blocks on a channel nobody receives from.
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				if ctx.Err() != nil {
					continue
				}
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					continue
				}
				if err := renderCell(canvas, frames.Frames[t.rank], t.rank, t.cell, cfg); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for r, cellIdx := range order {
		select {
		case tasks <- task{rank: r, cell: l.Cells[cellIdx]}:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return canvas, nil
}

// renderCell crops the frame to the cell's inner aspect ratio, resizes it to
// exactly fill the inner rectangle and pastes it, with optional rounded
// corners and label.
func renderCell(canvas *image.RGBA, frame media.Frame, rank int, cell layout.Cell, cfg Config) error {
	inner := cell.Rect.Inset(cfg.Gap)
	if inner.Empty() {
		// Gap swallowed the cell entirely; background shows through.
		return nil
	}
	if frame.Image == nil {
		return fmt.Errorf("%w: frame %d has no image", media.ErrInsufficientFrames, rank)
	}

	srcBounds := frame.Image.Bounds()
	crop := geometry.FitCrop(srcBounds.Dx(), srcBounds.Dy(), inner.Width, inner.Height)
	if crop.Empty() {
		return fmt.Errorf("%w: frame %d is empty", media.ErrInsufficientFrames, rank)
	}
	srcRect := image.Rect(
		srcBounds.Min.X+crop.X,
		srcBounds.Min.Y+crop.Y,
		srcBounds.Min.X+crop.X+crop.Width,
		srcBounds.Min.Y+crop.Y+crop.Height,
	)
	dstRect := image.Rect(inner.X, inner.Y, inner.X+inner.Width, inner.Y+inner.Height)

	if cfg.BorderRadius > 0 {
		// Scale into a scratch tile, then paste through a rounded mask.
		tile := image.NewRGBA(image.Rect(0, 0, inner.Width, inner.Height))
		xdraw.CatmullRom.Scale(tile, tile.Bounds(), frame.Image, srcRect, xdraw.Src, nil)
		mask := roundedMask(inner.Width, inner.Height, cfg.BorderRadius)
		draw.DrawMask(canvas, dstRect, tile, image.Point{}, mask, image.Point{}, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(canvas, dstRect, frame.Image, srcRect, xdraw.Src, nil)
	}

	if cfg.Label != LabelNone {
		drawLabel(canvas, inner, labelText(cfg.Label, frame, rank))
	}
	return nil
}

// roundedMask builds an alpha mask for a w x h rectangle with quarter-circle
// corners of the given radius.
func roundedMask(w, h, radius int) *image.Alpha {
	if radius > w/2 {
		radius = w / 2
	}
	if radius > h/2 {
		radius = h / 2
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r2 := radius * radius
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			alpha := uint8(0xFF)
			cx, cy := -1, -1
			if x < radius && y < radius {
				cx, cy = radius-1, radius-1
			} else if x >= w-radius && y < radius {
				cx, cy = w-radius, radius-1
			} else if x < radius && y >= h-radius {
				cx, cy = radius-1, h-radius
			} else if x >= w-radius && y >= h-radius {
				cx, cy = w-radius, h-radius
			}
			if cx >= 0 {
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy > r2 {
					alpha = 0
				}
			}
			mask.SetAlpha(x, y, color.Alpha{A: alpha})
		}
	}
	return mask
}
