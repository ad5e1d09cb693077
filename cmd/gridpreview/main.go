// Command gridpreview renders a numbered preview of a fill order: each cell
// is painted with a blue-to-orange gradient by assignment rank, with the
// rank number in the middle. Useful for eyeballing fill orders and quadtree
// layouts without extracting any video frames.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"video-fingerprint/internal/layout"
	"video-fingerprint/pkg/colorutil"
	"video-fingerprint/pkg/geometry"
)

var (
	gradientStart = color.RGBA{R: 59, G: 130, B: 246, A: 255} // cool blue
	gradientEnd   = color.RGBA{R: 249, G: 115, B: 22, A: 255} // warm orange
)

func main() {
	mode := flag.String("mode", "uniform", "uniform or quadtree")
	rows := flag.Int("rows", 5, "grid rows (uniform)")
	cols := flag.Int("cols", 5, "grid columns (uniform)")
	depth := flag.Int("max-depth", 3, "quadtree depth")
	policy := flag.String("policy", "balanced", "quadtree policy")
	order := flag.String("fill-order", "row", "fill order kind")
	seed := flag.Int64("seed", 42, "seed for random policies and orders")
	width := flag.Int("width", 800, "output width")
	height := flag.Int("height", 600, "output height")
	out := flag.String("o", "fillorder.png", "output PNG path")
	flag.Parse()

	canvas := geometry.NewRectInt(0, 0, *width, *height)

	var (
		lay layout.Layout
		err error
	)
	if *mode == "quadtree" {
		var p layout.Policy
		p, err = layout.ParsePolicy(*policy)
		if err == nil {
			lay, err = layout.Quadtree(canvas, *depth, p, *seed)
		}
	} else {
		lay, err = layout.UniformGrid(canvas, *rows, *cols)
	}
	if err != nil {
		log.Fatalf("layout: %v", err)
	}

	kind, err := layout.ParseKind(*order)
	if err != nil {
		log.Fatalf("fill order: %v", err)
	}
	perm, err := layout.Order(lay, kind, *seed)
	if err != nil {
		log.Fatalf("fill order: %v", err)
	}

	img := render(lay, perm)
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("encode: %v", err)
	}
	fmt.Printf("wrote %s (%d cells, %s order)\n", *out, lay.Len(), kind)
}

func render(lay layout.Layout, perm []int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, lay.Canvas.Width, lay.Canvas.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorutil.Black}, image.Point{}, draw.Src)

	total := len(perm)
	for rank, cellIdx := range perm {
		cell := lay.Cells[cellIdx].Rect

		t := 0.0
		if total > 1 {
			t = float64(rank) / float64(total-1)
		}
		fill := lerpColor(gradientStart, gradientEnd, t)

		rect := image.Rect(cell.X, cell.Y, cell.X+cell.Width, cell.Y+cell.Height)
		draw.Draw(img, rect, &image.Uniform{C: fill}, image.Point{}, draw.Src)
		drawBorder(img, rect)

		if cell.Width >= 18 && cell.Height >= 14 {
			drawCentered(img, cell, strconv.Itoa(rank+1))
		}
	}
	return img
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + t*(float64(y)-float64(x)))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}

func drawBorder(img *image.RGBA, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, colorutil.Gray)
		img.SetRGBA(x, r.Max.Y-1, colorutil.Gray)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, colorutil.Gray)
		img.SetRGBA(r.Max.X-1, y, colorutil.Gray)
	}
}

func drawCentered(img *image.RGBA, cell geometry.RectInt, text string) {
	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	x := cell.X + (cell.Width-textW)/2
	y := cell.Y + (cell.Height+face.Ascent)/2

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorutil.White),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
