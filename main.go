// Package main provides the command line entry point for the video
// fingerprint generator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"video-fingerprint/internal/config"
	"video-fingerprint/internal/encode"
	"video-fingerprint/internal/extract"
	"video-fingerprint/internal/media"
	"video-fingerprint/internal/pipeline"
	"video-fingerprint/internal/plan"
	"video-fingerprint/internal/probe"
	"video-fingerprint/pkg/logger"
)

func main() {
	cmd := newCommand()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	defaults := config.Default()

	return &cli.Command{
		Name:  "video-fingerprint",
		Usage: "Compose sampled video frames into a single fingerprint image",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input video file", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output image path", Value: "fingerprint.png"},
			&cli.StringFlag{Name: "mode", Usage: "Grid mode: uniform or quadtree", Value: defaults.GridMode},
			&cli.IntFlag{Name: "rows", Usage: "Grid rows (uniform mode)", Value: int64(defaults.Rows)},
			&cli.IntFlag{Name: "cols", Usage: "Grid columns (uniform mode)", Value: int64(defaults.Cols)},
			&cli.IntFlag{Name: "max-depth", Usage: "Quadtree depth, 1-6", Value: int64(defaults.MaxDepth)},
			&cli.StringFlag{Name: "policy", Usage: "Quadtree policy: balanced, random, center", Value: defaults.Policy},
			&cli.IntFlag{Name: "seed", Usage: "Seed for random policies and fill order", Value: defaults.Seed},
			&cli.StringFlag{Name: "fill-order", Usage: "Fill order: row, column, spiral, diagonal, random", Value: defaults.FillOrder},
			&cli.StringFlag{Name: "aspect", Usage: "Target aspect ratio, \"auto\" or W:H", Value: defaults.TargetRatio},
			&cli.IntFlag{Name: "width", Usage: "Output width in px", Value: int64(defaults.OutputWidth)},
			&cli.IntFlag{Name: "height", Usage: "Output height in px (0 derives from aspect)", Value: 0},
			&cli.StringFlag{Name: "format", Usage: "Output format: png, jpeg, tiff, webp (default from output extension)"},
			&cli.IntFlag{Name: "quality", Usage: "Quality 1-100 for lossy formats", Value: int64(defaults.Quality)},
			&cli.IntFlag{Name: "gap", Usage: "Gap in px removed from each cell side", Value: 0},
			&cli.IntFlag{Name: "radius", Usage: "Cell corner radius in px", Value: 0},
			&cli.StringFlag{Name: "background", Usage: "Background color, hex RRGGBB[AA]", Value: "000000"},
			&cli.StringFlag{Name: "label", Usage: "Cell label: none, number, timestamp", Value: "none"},
			&cli.BoolFlag{Name: "skip-black", Usage: "Drop near-black frames"},
			&cli.Float64Flag{Name: "black-threshold", Usage: "Black mean-intensity bound, 0-255", Value: defaults.BlackThreshold},
			&cli.StringSliceFlag{Name: "highlight", Usage: "Highlight timestamp (HH:MM:SS, MM:SS or seconds); repeatable"},
			&cli.Float64Flag{Name: "highlight-boost", Usage: "Sampling boost inside highlight zones", Value: defaults.HighlightBoost},
			&cli.StringFlag{Name: "backend", Usage: "Probe/extract backend: ffmpeg or gocv (env VFP_BACKEND)"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	log, err := logger.New(settings.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	comp, err := compositionFromFlags(cmd)
	if err != nil {
		return err
	}

	backend := settings.Backend
	if b := cmd.String("backend"); b != "" {
		backend = b
	}
	prober, extractor, err := buildBackend(backend, settings, log)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(pipeline.Stages),
		progressbar.OptionSetDescription("fingerprint"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	progress := func(stage pipeline.Stage, done, total int) {
		bar.Describe(string(stage))
		_ = bar.Set(done)
	}

	p := pipeline.New(prober, extractor, encode.NewFileEncoder(log), log, progress)
	result, err := p.Run(ctx, cmd.String("input"), cmd.String("output"), comp)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	log.Info("fingerprint complete",
		zap.String("output", result.OutputPath),
		zap.Int("cells", result.Cells),
		zap.Int("frames", result.Frames),
		zap.Bool("filter_fallback", result.FellBack),
	)
	fmt.Printf("wrote %s (%d cells, %.1fs video)\n",
		result.OutputPath, result.Cells, result.Metadata.Duration)
	return nil
}

func compositionFromFlags(cmd *cli.Command) (config.Composition, error) {
	comp := config.Default()
	comp.GridMode = cmd.String("mode")
	comp.Rows = int(cmd.Int("rows"))
	comp.Cols = int(cmd.Int("cols"))
	comp.MaxDepth = int(cmd.Int("max-depth"))
	comp.Policy = cmd.String("policy")
	comp.Seed = cmd.Int("seed")
	comp.FillOrder = cmd.String("fill-order")
	comp.TargetRatio = cmd.String("aspect")
	comp.OutputWidth = int(cmd.Int("width"))
	comp.OutputHeight = int(cmd.Int("height"))
	comp.Quality = int(cmd.Int("quality"))
	comp.Gap = int(cmd.Int("gap"))
	comp.BorderRadius = int(cmd.Int("radius"))
	comp.Background = cmd.String("background")
	comp.LabelMode = cmd.String("label")
	comp.SkipBlackFrames = cmd.Bool("skip-black")
	comp.BlackThreshold = cmd.Float64("black-threshold")
	comp.HighlightBoost = cmd.Float64("highlight-boost")

	comp.Format = cmd.String("format")
	if comp.Format == "" {
		comp.Format = formatFromPath(cmd.String("output"))
	}

	for _, raw := range cmd.StringSlice("highlight") {
		ts, err := plan.ParseTimestamp(raw)
		if err != nil {
			return comp, fmt.Errorf("%w: highlight: %v", media.ErrInvalidConfiguration, err)
		}
		comp.Highlights = append(comp.Highlights, ts)
	}
	return comp, nil
}

func buildBackend(name string, settings *config.Settings, log *zap.Logger) (media.Prober, media.Extractor, error) {
	switch name {
	case "ffmpeg", "":
		return probe.NewFFProbe(log), extract.NewFFmpeg(settings.ExtractWorkers, settings.ExtractRetries, log), nil
	case "gocv":
		return probe.NewGoCV(log), extract.NewGoCV(log), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", media.ErrInvalidConfiguration, name)
	}
}

// formatFromPath derives the output format from the file extension,
// defaulting to PNG.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return encode.FormatPNG
	}
	if format, err := encode.ParseFormat(ext); err == nil {
		return format
	}
	return encode.FormatPNG
}
