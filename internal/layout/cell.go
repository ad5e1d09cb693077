// Package layout partitions the output canvas into cells and computes the
// fill orders that map timeline-ordered frames onto them.
package layout

import (
	"sort"

	"video-fingerprint/pkg/geometry"
)

// Cell is one rectangle of a layout. Uniform-grid cells carry their row and
// column; quadtree cells carry their subdivision depth (Row and Col are -1).
type Cell struct {
	Rect  geometry.RectInt
	Depth int
	Row   int
	Col   int
}

// Layout is an ordered sequence of non-overlapping cells exactly tiling the
// canvas. Uniform grids are ordered row-major; quadtrees depth-first
// pre-order (top-left, top-right, bottom-left, bottom-right).
type Layout struct {
	Canvas geometry.RectInt
	Cells  []Cell

	// Rows and Cols are set for uniform grids and zero for quadtrees.
	Rows, Cols int
}

// Len returns the number of cells.
func (l Layout) Len() int {
	return len(l.Cells)
}

// LargestCells returns the indices of the n largest cells by area, ascending
// by layout position. Used to place highlight frames on prominent quadtree
// cells. n is clamped to the cell count.
func (l Layout) LargestCells(n int) []int {
	if n <= 0 || len(l.Cells) == 0 {
		return nil
	}
	if n > len(l.Cells) {
		n = len(l.Cells)
	}

	idx := make([]int, len(l.Cells))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return l.Cells[idx[a]].Rect.Area() > l.Cells[idx[b]].Rect.Area()
	})

	chosen := append([]int(nil), idx[:n]...)
	sort.Ints(chosen)
	return chosen
}
