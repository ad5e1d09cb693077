// Package config holds the per-run composition configuration and host-level
// settings.
package config

import (
	"fmt"
	"image/color"

	"github.com/caarlos0/env/v11"

	"video-fingerprint/internal/compose"
	"video-fingerprint/internal/encode"
	"video-fingerprint/internal/filter"
	"video-fingerprint/internal/layout"
	"video-fingerprint/internal/media"
	"video-fingerprint/pkg/colorutil"
	"video-fingerprint/pkg/geometry"
)

// Grid modes.
const (
	ModeUniform  = "uniform"
	ModeQuadtree = "quadtree"
)

// MaxOutputSide caps the output canvas dimensions.
const MaxOutputSide = 20000

// DefaultOutputWidth is used when no size is given.
const DefaultOutputWidth = 1920

// Composition is the immutable configuration snapshot of one run. It is
// created once from CLI input and only read afterwards.
type Composition struct {
	GridMode string

	// Uniform grid shape.
	Rows, Cols int

	// Quadtree parameters.
	MaxDepth int
	Policy   string
	Seed     int64

	FillOrder string

	// TargetRatio is "auto" (native video ratio) or "W:H".
	TargetRatio string

	// Output canvas size. Height 0 derives from the target ratio.
	OutputWidth, OutputHeight int

	Format  string
	Quality int

	Gap          int
	BorderRadius int
	Background   string
	LabelMode    string

	SkipBlackFrames bool
	BlackThreshold  float64

	// Highlight timestamps (seconds) and their sampling boost.
	Highlights     []float64
	HighlightBoost float64
}

// Default returns a Composition with the product defaults.
func Default() Composition {
	return Composition{
		GridMode:       ModeUniform,
		Rows:           5,
		Cols:           5,
		MaxDepth:       3,
		Policy:         "balanced",
		Seed:           42,
		FillOrder:      "row",
		TargetRatio:    "auto",
		OutputWidth:    DefaultOutputWidth,
		Format:         encode.FormatPNG,
		Quality:        90,
		BlackThreshold: filter.DefaultThreshold,
		HighlightBoost: 2.0,
	}
}

// Validate rejects bad parameters before any I/O happens.
func (c *Composition) Validate() error {
	switch c.GridMode {
	case ModeUniform:
		if c.Rows <= 0 || c.Cols <= 0 {
			return fmt.Errorf("%w: grid %dx%d must have positive rows and columns",
				media.ErrInvalidConfiguration, c.Rows, c.Cols)
		}
	case ModeQuadtree:
		if c.MaxDepth < layout.MinDepth || c.MaxDepth > layout.MaxDepth {
			return fmt.Errorf("%w: quadtree depth %d outside [%d,%d]",
				media.ErrInvalidConfiguration, c.MaxDepth, layout.MinDepth, layout.MaxDepth)
		}
		if _, err := layout.ParsePolicy(c.Policy); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown grid mode %q", media.ErrInvalidConfiguration, c.GridMode)
	}

	if _, err := layout.ParseKind(c.FillOrder); err != nil {
		return err
	}
	if _, err := compose.ParseLabelMode(c.LabelMode); err != nil {
		return err
	}
	if _, err := encode.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.TargetRatio != "auto" && c.TargetRatio != "" {
		if _, err := geometry.ParseAspectRatio(c.TargetRatio); err != nil {
			return fmt.Errorf("%w: %v", media.ErrInvalidConfiguration, err)
		}
	}
	if c.Background != "" {
		if _, err := colorutil.ParseHex(c.Background); err != nil {
			return fmt.Errorf("%w: %v", media.ErrInvalidConfiguration, err)
		}
	}

	if c.OutputWidth <= 0 || c.OutputWidth > MaxOutputSide ||
		c.OutputHeight < 0 || c.OutputHeight > MaxOutputSide {
		return fmt.Errorf("%w: output size %dx%d outside (0,%d]",
			media.ErrInvalidConfiguration, c.OutputWidth, c.OutputHeight, MaxOutputSide)
	}
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("%w: quality %d outside [0,100]", media.ErrInvalidConfiguration, c.Quality)
	}
	if c.Gap < 0 {
		return fmt.Errorf("%w: gap %d must be >= 0", media.ErrInvalidConfiguration, c.Gap)
	}
	if c.BorderRadius < 0 {
		return fmt.Errorf("%w: border radius %d must be >= 0", media.ErrInvalidConfiguration, c.BorderRadius)
	}
	if c.BlackThreshold < 0 || c.BlackThreshold > 255 {
		return fmt.Errorf("%w: black threshold %.1f outside [0,255]",
			media.ErrInvalidConfiguration, c.BlackThreshold)
	}
	for _, h := range c.Highlights {
		if h < 0 {
			return fmt.Errorf("%w: negative highlight timestamp %.3f", media.ErrInvalidConfiguration, h)
		}
	}
	return nil
}

// ResolveRatio returns the target aspect ratio, falling back to the native
// video ratio in "auto" mode.
func (c *Composition) ResolveRatio(meta media.VideoMetadata) geometry.AspectRatio {
	if c.TargetRatio == "auto" || c.TargetRatio == "" {
		if meta.Aspect.Valid() {
			return meta.Aspect
		}
		return geometry.AspectRatio{W: 16, H: 9}
	}
	ratio, _ := geometry.ParseAspectRatio(c.TargetRatio) // validated earlier
	return ratio
}

// ResolveSize returns the output canvas dimensions. A zero height is derived
// from the target ratio so uniform cells keep the target shape.
func (c *Composition) ResolveSize(ratio geometry.AspectRatio) (int, int) {
	w := c.OutputWidth
	h := c.OutputHeight
	if h == 0 {
		switch c.GridMode {
		case ModeUniform:
			// Each cell gets the target ratio.
			h = w * c.Rows * ratio.H / (c.Cols * ratio.W)
		default:
			// Quadtree canvases keep the target ratio overall.
			h = w * ratio.H / ratio.W
		}
		if h <= 0 {
			h = w
		}
		if h > MaxOutputSide {
			h = MaxOutputSide
		}
	}
	return w, h
}

// BackgroundColor returns the parsed background, defaulting to black.
func (c *Composition) BackgroundColor() color.Color {
	if c.Background == "" {
		return colorutil.Black
	}
	col, err := colorutil.ParseHex(c.Background)
	if err != nil {
		return colorutil.Black
	}
	return col
}

// Settings are host-level knobs read from the environment.
type Settings struct {
	LogLevel       string `env:"VFP_LOG_LEVEL"       envDefault:"info"`
	Backend        string `env:"VFP_BACKEND"         envDefault:"ffmpeg"`
	ExtractWorkers int    `env:"VFP_EXTRACT_WORKERS" envDefault:"0"`
	ExtractRetries int    `env:"VFP_EXTRACT_RETRIES" envDefault:"2"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}
