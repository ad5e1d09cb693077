package layout

import (
	"fmt"
	"math"

	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/geometry"
)

// UniformGrid splits the canvas into rows x cols cells in row-major order.
// Cell boundaries sit at round(i*size/n) so the rounding error is spread
// across the grid and the cells tile the canvas exactly.
func UniformGrid(canvas geometry.RectInt, rows, cols int) (Layout, error) {
	if rows <= 0 || cols <= 0 {
		return Layout{}, fmt.Errorf("%w: grid %dx%d must have positive rows and columns",
			media.ErrInvalidConfiguration, rows, cols)
	}
	if canvas.Empty() {
		return Layout{}, fmt.Errorf("%w: canvas %dx%d has no area",
			media.ErrInvalidConfiguration, canvas.Width, canvas.Height)
	}

	xs := boundaries(canvas.X, canvas.Width, cols)
	ys := boundaries(canvas.Y, canvas.Height, rows)

	cells := make([]Cell, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cells = append(cells, Cell{
				Rect: geometry.RectInt{
					X:      xs[c],
					Y:      ys[r],
					Width:  xs[c+1] - xs[c],
					Height: ys[r+1] - ys[r],
				},
				Row: r,
				Col: c,
			})
		}
	}

	return Layout{Canvas: canvas, Cells: cells, Rows: rows, Cols: cols}, nil
}

// boundaries returns n+1 edge positions spanning [origin, origin+size].
func boundaries(origin, size, n int) []int {
	edges := make([]int, n+1)
	for i := 0; i <= n; i++ {
		edges[i] = origin + int(math.Round(float64(i)*float64(size)/float64(n)))
	}
	return edges
}
