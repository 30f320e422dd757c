package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/rf-heatmap/core"

// PassMetricsRecorder receives the outcome of every generation pass.
type PassMetricsRecorder interface {
	ObservePass(result *PassResult, elapsed time.Duration, err error)
}

// PassResult is everything one generation pass produced.
type PassResult struct {
	Parameters model.HeatmapParameters
	Towers     []model.TowerPosition
	Samples    []model.SamplePoint
	Statistics Statistics
	Visible    bool
}

// Points returns sample positions in emission order.
func (r *PassResult) Points() []model.Vec3 {
	out := make([]model.Vec3, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Position
	}
	return out
}

// Colors returns sample colors in emission order.
func (r *PassResult) Colors() []model.Color {
	out := make([]model.Color, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Color
	}
	return out
}

// Widths returns sample widths in emission order.
func (r *PassResult) Widths() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Width
	}
	return out
}

// Generator runs generation passes: it clears the display object, collects
// towers, samples rings around each one and publishes the point cloud.
type Generator struct {
	display  DisplayStore
	towers   TowerSource
	reporter Reporter
	log      logging.Logger
	rng      RandSource
	metrics  PassMetricsRecorder
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithRandSource injects the random source used for angles and jitter.
func WithRandSource(src RandSource) GeneratorOption {
	return func(g *Generator) {
		if src != nil {
			g.rng = src
		}
	}
}

// WithReporter routes progress and summary lines to r.
func WithReporter(r Reporter) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.reporter = r
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithMetricsRecorder attaches an optional pass metrics recorder.
func WithMetricsRecorder(m PassMetricsRecorder) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

// NewGenerator wires a generator to its scene collaborators.
func NewGenerator(display DisplayStore, towers TowerSource, opts ...GeneratorOption) *Generator {
	g := &Generator{
		display:  display,
		towers:   towers,
		reporter: discardReporter{},
		log:      logging.Noop(),
		rng:      NewRandSource(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one pass with params. A scene without towers is not an
// error: the display object is hidden and emptied.
func (g *Generator) Generate(ctx context.Context, params model.HeatmapParameters) (res *PassResult, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "heatmap.Generate", trace.WithAttributes(
		attribute.Float64("heatmap.max_range", params.MaxRange),
		attribute.Float64("heatmap.min_range", params.MinRange),
		attribute.Int("heatmap.points_per_tower", params.PointsPerTower),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("heatmap.towers", len(res.Towers)),
				attribute.Int("heatmap.points", len(res.Samples)),
			)
		}
		span.End()
		if g.metrics != nil {
			g.metrics.ObservePass(res, time.Since(start), err)
		}
	}()

	if g.display == nil || g.towers == nil {
		return nil, fmt.Errorf("generate heatmap: generator is missing its scene store or tower source")
	}

	if err := g.display.DeleteObjectAt(ctx, DisplayPath); err != nil {
		return nil, fmt.Errorf("generate heatmap: clear %s: %w", DisplayPath, err)
	}
	h, err := g.display.CreatePointCloudAt(ctx, DisplayPath)
	if err != nil {
		return nil, fmt.Errorf("generate heatmap: create %s: %w", DisplayPath, err)
	}

	g.reporter.Log(rule)
	g.reporter.Log("RF SIGNAL HEATMAP GENERATOR")
	g.reporter.Log(rule)
	g.reporter.Log("Scanning for visible towers...")

	towers, err := g.towers.Towers(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate heatmap: scan towers: %w", err)
	}
	g.reporter.Log(fmt.Sprintf("Total active towers: %d", len(towers)))
	g.reporter.Log(thinRule)

	res = &PassResult{Parameters: params, Towers: towers}

	if len(towers) == 0 {
		g.reporter.Log("STATUS: No visible towers detected.")
		g.reporter.Log("ACTION: Hiding signal visualizer.")
		if err := g.publish(ctx, h, model.VisibilityInvisible, res); err != nil {
			return nil, err
		}
		g.reporter.Log("Visualizer hidden and cleared.")
		g.log.Info(ctx, "heatmap pass found no towers")
		return res, nil
	}

	g.reporter.Log(fmt.Sprintf("Generating signal heatmap for %d towers...", len(towers)))
	if params.Degenerate() {
		g.log.Warn(ctx, "degenerate signal range; gradient collapses",
			logging.Float("max_range", params.MaxRange),
			logging.Float("min_range", params.MinRange),
		)
	}

	sampler := NewRingSampler(params, g.rng)
	res.Samples = make([]model.SamplePoint, 0, sampler.PointsPerTower()*len(towers))
	for i, tower := range towers {
		g.reporter.Log(fmt.Sprintf("  Processing tower %d/%d...", i+1, len(towers)))
		res.Samples = sampler.AppendSamples(res.Samples, tower)
	}
	res.Visible = true

	if err := g.publish(ctx, h, model.VisibilityInherited, res); err != nil {
		return nil, err
	}
	g.reporter.Log("SUCCESS: Signal map updated with gradient colors")

	res.Statistics = ComputeStatistics(res.Colors())
	for _, line := range SummaryLines(res) {
		g.reporter.Log(line)
	}

	g.log.Info(ctx, "heatmap pass complete",
		logging.Int("towers", len(towers)),
		logging.Int("points", len(res.Samples)),
		logging.Float("mean_strength", res.Statistics.Mean),
	)
	return res, nil
}

// publish writes visibility and the per-point arrays of res to h.
func (g *Generator) publish(ctx context.Context, h Handle, vis model.Visibility, res *PassResult) error {
	colors := make([]model.Vec3, len(res.Samples))
	for i, s := range res.Samples {
		colors[i] = s.Color.AsVec3()
	}

	if err := g.display.SetVisibility(ctx, h, vis); err != nil {
		return fmt.Errorf("generate heatmap: set visibility: %w", err)
	}
	if err := g.display.SetPoints(ctx, h, res.Points()); err != nil {
		return fmt.Errorf("generate heatmap: set points: %w", err)
	}
	if err := g.display.SetColors(ctx, h, colors); err != nil {
		return fmt.Errorf("generate heatmap: set colors: %w", err)
	}
	if err := g.display.SetWidths(ctx, h, res.Widths()); err != nil {
		return fmt.Errorf("generate heatmap: set widths: %w", err)
	}
	return nil
}
