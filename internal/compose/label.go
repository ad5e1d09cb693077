package compose

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"video-fingerprint/internal/media"
	"video-fingerprint/internal/plan"
	"video-fingerprint/pkg/colorutil"
	"video-fingerprint/pkg/geometry"
)

// labelPad is the px margin between the label box and the cell edge, and the
// text inset inside the box.
const labelPad = 3

func labelText(mode LabelMode, frame media.Frame, rank int) string {
	switch mode {
	case LabelFrameNumber:
		return strconv.Itoa(rank + 1)
	case LabelTimestamp:
		return plan.FormatTimestamp(frame.Timestamp)
	default:
		return ""
	}
}

// drawLabel paints the text over a translucent box in the cell's bottom-left
// corner. Labels that do not fit the cell are skipped.
func drawLabel(canvas *image.RGBA, inner geometry.RectInt, text string) {
	if text == "" {
		return
	}

	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	boxW := textW + 2*labelPad
	boxH := face.Height + 2*labelPad
	if boxW > inner.Width || boxH > inner.Height {
		return
	}

	boxX := inner.X + labelPad
	boxY := inner.Y + inner.Height - labelPad - boxH
	box := image.Rect(boxX, boxY, boxX+boxW, boxY+boxH)
	draw.Draw(canvas, box, &image.Uniform{C: color.NRGBA{A: 160}}, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(colorutil.White),
		Face: face,
		Dot:  fixed.P(boxX+labelPad, boxY+labelPad+face.Ascent),
	}
	d.DrawString(text)
}
