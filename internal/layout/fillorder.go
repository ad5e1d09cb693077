package layout

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/geometry"
)

// Kind selects how frames are assigned to cells.
type Kind int

const (
	// KindRow fills cells in reading order (row-major).
	KindRow Kind = iota
	// KindColumn fills column by column, top to bottom.
	KindColumn
	// KindSpiral starts at the center cell and spirals outward clockwise.
	KindSpiral
	// KindDiagonal walks anti-diagonals from the top-left corner outward.
	KindDiagonal
	// KindRandom draws a seeded random permutation.
	KindRandom
)

func (k Kind) String() string {
	switch k {
	case KindRow:
		return "row"
	case KindColumn:
		return "column"
	case KindSpiral:
		return "spiral"
	case KindDiagonal:
		return "diagonal"
	case KindRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParseKind parses a fill order name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "row":
		return KindRow, nil
	case "column":
		return KindColumn, nil
	case "spiral":
		return KindSpiral, nil
	case "diagonal":
		return KindDiagonal, nil
	case "random":
		return KindRandom, nil
	default:
		return 0, fmt.Errorf("%w: unknown fill order %q", media.ErrInvalidConfiguration, s)
	}
}

// GridOrder returns the assignment permutation for a rows x cols grid whose
// layout is row-major: element r is the index of the cell the r-th frame
// lands in. The result is always a permutation of [0, rows*cols).
func GridOrder(rows, cols int, kind Kind, seed int64) ([]int, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d has no cells", media.ErrInvalidConfiguration, rows, cols)
	}

	switch kind {
	case KindRow:
		return identityPerm(rows * cols), nil
	case KindColumn:
		perm := make([]int, 0, rows*cols)
		for c := 0; c < cols; c++ {
			for r := 0; r < rows; r++ {
				perm = append(perm, r*cols+c)
			}
		}
		return perm, nil
	case KindSpiral:
		return spiralPerm(rows, cols), nil
	case KindDiagonal:
		return diagonalPerm(rows, cols), nil
	case KindRandom:
		return rand.New(rand.NewSource(seed)).Perm(rows * cols), nil
	default:
		return nil, fmt.Errorf("%w: unknown fill order %d", media.ErrInvalidConfiguration, kind)
	}
}

// Order returns the assignment permutation for an arbitrary layout. Uniform
// grids use the exact discrete grid walks; quadtree layouts use geometric
// equivalents over the cell centers.
func Order(l Layout, kind Kind, seed int64) ([]int, error) {
	if l.Len() == 0 {
		return nil, fmt.Errorf("%w: layout has no cells", media.ErrInvalidConfiguration)
	}
	if l.Rows > 0 && l.Cols > 0 {
		return GridOrder(l.Rows, l.Cols, kind, seed)
	}
	return cellOrder(l, kind, seed)
}

// spiralPerm starts at the geometric center cell and walks outward clockwise
// (right, down, left, up), skipping positions outside the grid.
func spiralPerm(rows, cols int) []int {
	total := rows * cols
	perm := make([]int, 0, total)

	r, c := rows/2, cols/2
	perm = append(perm, r*cols+c)

	dr := []int{0, 1, 0, -1}
	dc := []int{1, 0, -1, 0}
	dir := 0
	steps := 1

	for len(perm) < total {
		for leg := 0; leg < 2 && len(perm) < total; leg++ {
			for i := 0; i < steps && len(perm) < total; i++ {
				r += dr[dir]
				c += dc[dir]
				if r >= 0 && r < rows && c >= 0 && c < cols {
					perm = append(perm, r*cols+c)
				}
			}
			dir = (dir + 1) % 4
		}
		steps++
	}
	return perm
}

// diagonalPerm walks anti-diagonals (constant row+col) from the top-left
// corner outward, each diagonal left to right.
func diagonalPerm(rows, cols int) []int {
	perm := make([]int, 0, rows*cols)
	for sum := 0; sum < rows+cols-1; sum++ {
		rStart := sum
		if rStart > rows-1 {
			rStart = rows - 1
		}
		rEnd := sum - cols + 1
		if rEnd < 0 {
			rEnd = 0
		}
		for r := rStart; r >= rEnd; r-- {
			perm = append(perm, r*cols+(sum-r))
		}
	}
	return perm
}

// cellOrder computes fill orders geometrically over cell centers, for
// layouts without a row/column structure.
func cellOrder(l Layout, kind Kind, seed int64) ([]int, error) {
	n := l.Len()

	switch kind {
	case KindRow:
		// Reading order: band rows by y with a tolerance of half the
		// smallest cell height so cells of different sizes still group into
		// visual rows, then left to right.
		tol := math.Max(1, float64(minCellHeight(l))/2)
		return sortedPerm(n, func(a, b int) bool {
			ca, cb := l.Cells[a].Rect.Center(), l.Cells[b].Rect.Center()
			ba, bb := math.Round(ca.Y/tol), math.Round(cb.Y/tol)
			if ba != bb {
				return ba < bb
			}
			return ca.X < cb.X
		}), nil
	case KindColumn:
		tol := math.Max(1, float64(minCellWidth(l))/2)
		return sortedPerm(n, func(a, b int) bool {
			ca, cb := l.Cells[a].Rect.Center(), l.Cells[b].Rect.Center()
			ba, bb := math.Round(ca.X/tol), math.Round(cb.X/tol)
			if ba != bb {
				return ba < bb
			}
			return ca.Y < cb.Y
		}), nil
	case KindSpiral:
		// Center-out, clockwise angle as tie-break.
		center := l.Canvas.Center()
		return sortedPerm(n, func(a, b int) bool {
			ca, cb := l.Cells[a].Rect.Center(), l.Cells[b].Rect.Center()
			da, db := center.Distance(ca), center.Distance(cb)
			if da != db {
				return da < db
			}
			return clockwiseAngle(center, ca) < clockwiseAngle(center, cb)
		}), nil
	case KindDiagonal:
		return sortedPerm(n, func(a, b int) bool {
			ca, cb := l.Cells[a].Rect.Center(), l.Cells[b].Rect.Center()
			sa, sb := ca.X+ca.Y, cb.X+cb.Y
			if sa != sb {
				return sa < sb
			}
			return ca.X < cb.X
		}), nil
	case KindRandom:
		return rand.New(rand.NewSource(seed)).Perm(n), nil
	default:
		return nil, fmt.Errorf("%w: unknown fill order %d", media.ErrInvalidConfiguration, kind)
	}
}

func identityPerm(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// sortedPerm sorts the identity permutation; less compares cell indices, so
// it must be applied to the permutation values, not the slice positions.
func sortedPerm(n int, less func(a, b int) bool) []int {
	perm := identityPerm(n)
	sort.SliceStable(perm, func(i, j int) bool {
		return less(perm[i], perm[j])
	})
	return perm
}

// clockwiseAngle measures the angle of p around center, starting at twelve
// o'clock and increasing clockwise (screen coordinates, y grows downward).
func clockwiseAngle(center, p geometry.Point2D) float64 {
	a := math.Atan2(p.X-center.X, -(p.Y - center.Y))
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func minCellHeight(l Layout) int {
	m := l.Canvas.Height
	for _, c := range l.Cells {
		if c.Rect.Height < m {
			m = c.Rect.Height
		}
	}
	return m
}

func minCellWidth(l Layout) int {
	m := l.Canvas.Width
	for _, c := range l.Cells {
		if c.Rect.Width < m {
			m = c.Rect.Width
		}
	}
	return m
}
