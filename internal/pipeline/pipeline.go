// Package pipeline orchestrates a fingerprint run: probe, plan, extract,
// filter, layout, compose, encode.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"video-fingerprint/internal/compose"
	"video-fingerprint/internal/config"
	"video-fingerprint/internal/filter"
	"video-fingerprint/internal/layout"
	"video-fingerprint/internal/media"
	"video-fingerprint/internal/plan"
	"video-fingerprint/pkg/geometry"
)

// Stage identifies a pipeline stage for progress reporting and error
// attribution.
type Stage string

// Pipeline stages, in execution order.
const (
	StageProbe   Stage = "probe"
	StagePlan    Stage = "plan"
	StageExtract Stage = "extract"
	StageFilter  Stage = "filter"
	StageLayout  Stage = "layout"
	StageCompose Stage = "compose"
	StageEncode  Stage = "encode"
)

// Stages lists the stages in execution order.
var Stages = []Stage{StageProbe, StagePlan, StageExtract, StageFilter, StageLayout, StageCompose, StageEncode}

// Progress is invoked after each completed stage. done counts completed
// stages out of total. Callbacks run on the pipeline goroutine and must not
// block for long.
type Progress func(stage Stage, done, total int)

// Pipeline wires the external collaborators to the composition core.
type Pipeline struct {
	prober    media.Prober
	extractor media.Extractor
	encoder   media.Encoder
	log       *zap.Logger
	progress  Progress
}

// New creates a Pipeline. progress may be nil.
func New(prober media.Prober, extractor media.Extractor, encoder media.Encoder, log *zap.Logger, progress Progress) *Pipeline {
	return &Pipeline{
		prober:    prober,
		extractor: extractor,
		encoder:   encoder,
		log:       log,
		progress:  progress,
	}
}

// Result summarizes a completed run.
type Result struct {
	Metadata   media.VideoMetadata
	Cells      int
	Frames     int
	FellBack   bool
	OutputPath string
}

// Run produces one fingerprint image for the input video. Configuration
// errors surface before any probing or extraction cost; collaborator errors
// abort the run attributed to their stage. A cancelled context aborts
// between stages and inside the extraction and composition loops, and no
// partial output file is ever left behind.
func (p *Pipeline) Run(ctx context.Context, input, output string, comp config.Composition) (*Result, error) {
	if err := comp.Validate(); err != nil {
		return nil, err
	}

	total := len(Stages)
	step := func(s Stage, done int) {
		if p.progress != nil {
			p.progress(s, done, total)
		}
	}

	meta, err := p.prober.Probe(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("probe stage: %w", err)
	}
	step(StageProbe, 1)

	lay, order, err := p.buildLayout(meta, comp)
	if err != nil {
		return nil, err
	}
	targetCount := lay.Len()

	req, err := p.buildPlan(meta, comp, targetCount)
	if err != nil {
		return nil, fmt.Errorf("plan stage: %w", err)
	}
	step(StagePlan, 2)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames, err := p.extractor.Extract(ctx, input, req)
	if err != nil {
		return nil, fmt.Errorf("extract stage: %w", err)
	}
	p.log.Info("extracted frames",
		zap.Int("requested", req.Count()),
		zap.Int("decoded", frames.Len()),
		zap.Int("missing", frames.Missing()),
	)
	step(StageExtract, 3)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := filter.Apply(frames, filter.Options{
		Threshold:   comp.BlackThreshold,
		Enabled:     comp.SkipBlackFrames,
		TargetCount: targetCount,
	})
	if res.FellBack {
		p.log.Warn("black-frame filter fell back to even re-sampling",
			zap.Int("black", res.BlackCount),
			zap.Int("sampled", frames.Len()),
		)
	}
	step(StageFilter, 4)

	if len(comp.Highlights) > 0 {
		order = promoteHighlights(order, lay, res.Frames, comp.Highlights)
	}
	step(StageLayout, 5)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	canvas, err := compose.Compose(ctx, res.Frames, lay, order, compose.Config{
		Background:   comp.BackgroundColor(),
		Gap:          comp.Gap,
		BorderRadius: comp.BorderRadius,
		Label:        mustLabelMode(comp.LabelMode),
	})
	if err != nil {
		return nil, fmt.Errorf("compose stage: %w", err)
	}
	step(StageCompose, 6)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.encoder.Encode(ctx, canvas, output, comp.Format, comp.Quality); err != nil {
		return nil, fmt.Errorf("encode stage: %w", err)
	}
	step(StageEncode, 7)

	return &Result{
		Metadata:   meta,
		Cells:      targetCount,
		Frames:     res.Frames.Len(),
		FellBack:   res.FellBack,
		OutputPath: output,
	}, nil
}

// buildLayout computes the cell layout and the fill-order permutation.
func (p *Pipeline) buildLayout(meta media.VideoMetadata, comp config.Composition) (layout.Layout, []int, error) {
	ratio := comp.ResolveRatio(meta)
	w, h := comp.ResolveSize(ratio)
	canvas := geometry.NewRectInt(0, 0, w, h)

	var (
		lay layout.Layout
		err error
	)
	switch comp.GridMode {
	case config.ModeQuadtree:
		policy, perr := layout.ParsePolicy(comp.Policy)
		if perr != nil {
			return layout.Layout{}, nil, perr
		}
		lay, err = layout.Quadtree(canvas, comp.MaxDepth, policy, comp.Seed)
	default:
		lay, err = layout.UniformGrid(canvas, comp.Rows, comp.Cols)
	}
	if err != nil {
		return layout.Layout{}, nil, err
	}

	kind, err := layout.ParseKind(comp.FillOrder)
	if err != nil {
		return layout.Layout{}, nil, err
	}
	order, err := layout.Order(lay, kind, comp.Seed)
	if err != nil {
		return layout.Layout{}, nil, err
	}

	p.log.Debug("computed layout",
		zap.String("mode", comp.GridMode),
		zap.Int("cells", lay.Len()),
		zap.String("ratio", ratio.String()),
		zap.Int("width", w),
		zap.Int("height", h),
	)
	return lay, order, nil
}

// buildPlan computes the sample request, over-sampling for the black filter
// and weighting around highlights when present.
func (p *Pipeline) buildPlan(meta media.VideoMetadata, comp config.Composition, targetCount int) (media.SampleRequest, error) {
	count := targetCount
	if comp.SkipBlackFrames {
		count = plan.OverSampleCount(meta, targetCount)
	}
	if len(comp.Highlights) > 0 {
		return plan.WeightedTimestamps(meta, count, comp.Highlights, comp.HighlightBoost)
	}
	return plan.Timestamps(meta, count)
}

// promoteHighlights swaps fill-order ranks so the frame nearest each
// highlight timestamp lands in one of the largest cells. The permutation
// stays a bijection: assignments are exchanged, never duplicated.
func promoteHighlights(order []int, lay layout.Layout, frames media.FrameSet, highlights []float64) []int {
	promoted := append([]int(nil), order...)
	targets := lay.LargestCells(len(highlights))

	cellToRank := make(map[int]int, len(promoted))
	for r, c := range promoted {
		cellToRank[c] = r
	}

	for i, ht := range highlights {
		if i >= len(targets) {
			break
		}
		rank := nearestFrameRank(frames, ht)
		if rank < 0 || rank >= len(promoted) {
			continue
		}
		targetCell := targets[i]
		otherRank := cellToRank[targetCell]

		promoted[rank], promoted[otherRank] = promoted[otherRank], promoted[rank]
		cellToRank[promoted[otherRank]] = otherRank
		cellToRank[promoted[rank]] = rank
	}
	return promoted
}

// nearestFrameRank returns the timeline rank of the frame closest to ts.
func nearestFrameRank(frames media.FrameSet, ts float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, f := range frames.Frames {
		if d := math.Abs(f.Timestamp - ts); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func mustLabelMode(s string) compose.LabelMode {
	mode, err := compose.ParseLabelMode(s)
	if err != nil {
		return compose.LabelNone // validated before the run starts
	}
	return mode
}

