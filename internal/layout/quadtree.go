package layout

import (
	"fmt"
	"math"
	"math/rand"

	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/geometry"
)

// Policy decides whether a quadtree node is subdivided.
type Policy int

const (
	// PolicyBalanced subdivides every node down to maxDepth.
	PolicyBalanced Policy = iota
	// PolicyRandom subdivides with a fixed seeded probability.
	PolicyRandom
	// PolicyCenterWeighted subdivides more often near the canvas center.
	PolicyCenterWeighted
)

func (p Policy) String() string {
	switch p {
	case PolicyBalanced:
		return "balanced"
	case PolicyRandom:
		return "random"
	case PolicyCenterWeighted:
		return "center"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "balanced":
		return PolicyBalanced, nil
	case "random":
		return PolicyRandom, nil
	case "center", "center-weighted":
		return PolicyCenterWeighted, nil
	default:
		return 0, fmt.Errorf("%w: unknown quadtree policy %q", media.ErrInvalidConfiguration, s)
	}
}

const (
	// MinDepth and MaxDepth bound the subdivision depth.
	MinDepth = 1
	MaxDepth = 6

	// randomSplitProb is the per-node subdivision probability of PolicyRandom.
	randomSplitProb = 0.70

	// Center-weighted probability runs from centerProbAtCenter at the canvas
	// center down to centerProbAtCorner at the corners.
	centerProbAtCenter = 0.95
	centerProbAtCorner = 0.15

	// minCellSide stops subdivision before quadrants degenerate.
	minCellSide = 8
)

type qnode struct {
	rect  geometry.RectInt
	depth int
}

// Quadtree recursively subdivides the canvas into quadrant cells and returns
// the leaves in depth-first pre-order (top-left, top-right, bottom-left,
// bottom-right). The root always splits, so every layout has at least four
// cells. The walk uses an explicit stack; the same seed always yields the
// same layout.
func Quadtree(canvas geometry.RectInt, maxDepth int, policy Policy, seed int64) (Layout, error) {
	if maxDepth < MinDepth || maxDepth > MaxDepth {
		return Layout{}, fmt.Errorf("%w: quadtree depth %d outside [%d,%d]",
			media.ErrInvalidConfiguration, maxDepth, MinDepth, MaxDepth)
	}
	if policy < PolicyBalanced || policy > PolicyCenterWeighted {
		return Layout{}, fmt.Errorf("%w: unknown quadtree policy %d", media.ErrInvalidConfiguration, policy)
	}
	if canvas.Empty() {
		return Layout{}, fmt.Errorf("%w: canvas %dx%d has no area",
			media.ErrInvalidConfiguration, canvas.Width, canvas.Height)
	}

	rng := rand.New(rand.NewSource(seed))
	center := canvas.Center()
	maxDist := center.Distance(geometry.Point2D{X: float64(canvas.X), Y: float64(canvas.Y)})

	var cells []Cell
	stack := []qnode{{rect: canvas, depth: 0}}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !shouldSplit(node, maxDepth, policy, rng, center, maxDist) {
			cells = append(cells, Cell{Rect: node.rect, Depth: node.depth, Row: -1, Col: -1})
			continue
		}

		tl, tr, bl, br := quadrants(node.rect)
		// Push in reverse so the pop order is TL, TR, BL, BR.
		stack = append(stack,
			qnode{rect: br, depth: node.depth + 1},
			qnode{rect: bl, depth: node.depth + 1},
			qnode{rect: tr, depth: node.depth + 1},
			qnode{rect: tl, depth: node.depth + 1},
		)
	}

	return Layout{Canvas: canvas, Cells: cells}, nil
}

func shouldSplit(node qnode, maxDepth int, policy Policy, rng *rand.Rand, center geometry.Point2D, maxDist float64) bool {
	if node.depth >= maxDepth {
		return false
	}
	if node.rect.Width/2 < minCellSide || node.rect.Height/2 < minCellSide {
		return false
	}
	if node.depth == 0 {
		// The root always splits: a single-cell fingerprint is useless.
		return true
	}

	switch policy {
	case PolicyBalanced:
		return true
	case PolicyRandom:
		return rng.Float64() < randomSplitProb
	case PolicyCenterWeighted:
		t := 0.0
		if maxDist > 0 {
			t = math.Min(1, node.rect.Center().Distance(center)/maxDist)
		}
		prob := centerProbAtCenter - (centerProbAtCenter-centerProbAtCorner)*t
		return rng.Float64() < prob
	default:
		return false
	}
}

// quadrants splits a rectangle into four at its integer midpoint, so the
// children tile the parent exactly even for odd sizes.
func quadrants(r geometry.RectInt) (tl, tr, bl, br geometry.RectInt) {
	mx := r.X + r.Width/2
	my := r.Y + r.Height/2
	rx := r.X + r.Width
	ry := r.Y + r.Height

	tl = geometry.RectInt{X: r.X, Y: r.Y, Width: mx - r.X, Height: my - r.Y}
	tr = geometry.RectInt{X: mx, Y: r.Y, Width: rx - mx, Height: my - r.Y}
	bl = geometry.RectInt{X: r.X, Y: my, Width: mx - r.X, Height: ry - my}
	br = geometry.RectInt{X: mx, Y: my, Width: rx - mx, Height: ry - my}
	return tl, tr, bl, br
}
