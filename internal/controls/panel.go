package controls

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/model"
)

var (
	// ErrDegenerateRange flags a max range that does not exceed the min range.
	ErrDegenerateRange = errors.New("max range must exceed min range")
	// ErrUnknownParameter is returned by Set for an unrecognised field name.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrInvalidValue is returned by Set for NaN input.
	ErrInvalidValue = errors.New("value is not a number")
)

// Parameter names one adjustable field.
type Parameter string

const (
	MaxRange       Parameter = "max_range"
	MinRange       Parameter = "min_range"
	PointsPerTower Parameter = "points_per_tower"
	PointSize      Parameter = "point_size"
)

// Parameters lists every adjustable field in panel order.
var Parameters = []Parameter{MaxRange, MinRange, PointsPerTower, PointSize}

// Limits returns the slider range of p.
func (p Parameter) Limits() (model.ParameterRange, bool) {
	switch p {
	case MaxRange:
		return model.MaxRangeLimits, true
	case MinRange:
		return model.MinRangeLimits, true
	case PointsPerTower:
		return model.PointsPerTowerLimits, true
	case PointSize:
		return model.PointSizeLimits, true
	default:
		return model.ParameterRange{}, false
	}
}

// Label renders a value the way the panel shows it next to its slider.
func (p Parameter) Label(v float64) string {
	switch p {
	case MaxRange, MinRange:
		return fmt.Sprintf("%.0fm", v)
	case PointsPerTower:
		return fmt.Sprintf("%d", int(v))
	default:
		return fmt.Sprintf("%.1f", v)
	}
}

// Change describes one accepted parameter update.
type Change struct {
	Parameter Parameter
	Value     float64
	Label     string
	Params    model.HeatmapParameters
}

// Generator runs one pass with the given parameters.
type Generator interface {
	Generate(ctx context.Context, params model.HeatmapParameters) (*core.PassResult, error)
}

// Panel owns the live HeatmapParameters record. Setters clamp to the
// slider ranges; Trigger regenerates the heatmap with a snapshot of the
// current values.
type Panel struct {
	mu     sync.Mutex
	params model.HeatmapParameters

	// passMu serialises passes so only one is ever in flight.
	passMu sync.Mutex

	gen      Generator
	reporter core.Reporter
	log      logging.Logger

	listeners     map[int]func(Change)
	passListeners map[int]func(*core.PassResult)
	nextID        int
	last          *core.PassResult
}

var _ core.ParameterSource = (*Panel)(nil)

// Option customises a Panel.
type Option func(*Panel)

// WithInitial seeds the panel with params; out-of-range values are clamped.
func WithInitial(params model.HeatmapParameters) Option {
	return func(p *Panel) { p.params = clampAll(params) }
}

// WithReporter receives the refresh banner and validation warnings.
func WithReporter(r core.Reporter) Option {
	return func(p *Panel) {
		if r != nil {
			p.reporter = r
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Panel) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPanel builds a panel that triggers gen.
func NewPanel(gen Generator, opts ...Option) *Panel {
	p := &Panel{
		params:        model.DefaultParameters(),
		gen:           gen,
		reporter:      core.ReporterFunc(func(string) {}),
		log:           logging.Noop(),
		listeners:     make(map[int]func(Change)),
		passListeners: make(map[int]func(*core.PassResult)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parameters returns a copy of the current values.
func (p *Panel) Parameters() model.HeatmapParameters {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// Get returns the current value of one field.
func (p *Panel) Get(name Parameter) (float64, error) {
	params := p.Parameters()
	switch name {
	case MaxRange:
		return params.MaxRange, nil
	case MinRange:
		return params.MinRange, nil
	case PointsPerTower:
		return float64(params.PointsPerTower), nil
	case PointSize:
		return params.PointSize, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
}

// Set clamps v to the field's slider range, stores it and notifies
// listeners. It returns the value actually stored.
func (p *Panel) Set(name Parameter, v float64) (float64, error) {
	limits, ok := name.Limits()
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%s: %w", name, ErrInvalidValue)
	}
	v = limits.Clamp(v)

	p.mu.Lock()
	switch name {
	case MaxRange:
		p.params.MaxRange = v
	case MinRange:
		p.params.MinRange = v
	case PointsPerTower:
		v = math.Round(v)
		p.params.PointsPerTower = int(v)
	case PointSize:
		p.params.PointSize = v
	}
	change := Change{Parameter: name, Value: v, Label: name.Label(v), Params: p.params}
	listeners := make([]func(Change), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(change)
	}
	return v, nil
}

// SetMaxRange sets the maximum signal range in metres.
func (p *Panel) SetMaxRange(v float64) float64 {
	v, _ = p.Set(MaxRange, v)
	return v
}

// SetMinRange sets the minimum signal range in metres.
func (p *Panel) SetMinRange(v float64) float64 {
	v, _ = p.Set(MinRange, v)
	return v
}

// SetPointsPerTower sets the sample density.
func (p *Panel) SetPointsPerTower(n int) int {
	v, _ := p.Set(PointsPerTower, float64(n))
	return int(v)
}

// SetPointSize sets the rendered point width.
func (p *Panel) SetPointSize(v float64) float64 {
	v, _ = p.Set(PointSize, v)
	return v
}

// OnChange registers fn for every accepted update and returns a function
// that removes it.
func (p *Panel) OnChange(fn func(Change)) (remove func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// OnPass registers fn for every successful pass and returns a function that
// removes it.
func (p *Panel) OnPass(fn func(*core.PassResult)) (remove func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.passListeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.passListeners, id)
	}
}

// Validate reports ErrDegenerateRange when max range does not exceed min
// range. Degenerate values are still accepted; a pass then yields a flat
// gradient.
func (p *Panel) Validate() error {
	return Validate(p.Parameters())
}

// Validate checks params for a degenerate range.
func Validate(params model.HeatmapParameters) error {
	if params.Degenerate() {
		return fmt.Errorf("%w: max %.1fm <= min %.1fm", ErrDegenerateRange, params.MaxRange, params.MinRange)
	}
	return nil
}

// Start runs the initial pass with the current parameters.
func (p *Panel) Start(ctx context.Context) (*core.PassResult, error) {
	return p.run(ctx, false)
}

// Trigger re-runs the pass with the current parameters after a change.
func (p *Panel) Trigger(ctx context.Context) (*core.PassResult, error) {
	return p.run(ctx, true)
}

func (p *Panel) run(ctx context.Context, refresh bool) (*core.PassResult, error) {
	if p.gen == nil {
		return nil, fmt.Errorf("trigger: panel has no generator")
	}
	p.passMu.Lock()
	defer p.passMu.Unlock()

	params := p.Parameters()
	if refresh {
		p.reporter.Log("Refreshing heatmap with new settings...")
	}
	if err := Validate(params); err != nil {
		p.reporter.Log("WARNING: " + err.Error() + "; the gradient will be flat.")
		p.log.Warn(ctx, "running pass with degenerate range", logging.Err(err))
	}

	res, err := p.gen.Generate(ctx, params)
	if err != nil {
		p.log.Error(ctx, "heatmap pass failed", logging.Err(err))
		return nil, err
	}

	p.mu.Lock()
	p.last = res
	listeners := make([]func(*core.PassResult), 0, len(p.passListeners))
	for _, fn := range p.passListeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
	return res, nil
}

// LastResult returns the most recent successful pass, or nil.
func (p *Panel) LastResult() *core.PassResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func clampAll(params model.HeatmapParameters) model.HeatmapParameters {
	return model.HeatmapParameters{
		MaxRange:       model.MaxRangeLimits.Clamp(params.MaxRange),
		MinRange:       model.MinRangeLimits.Clamp(params.MinRange),
		PointsPerTower: int(math.Round(model.PointsPerTowerLimits.Clamp(float64(params.PointsPerTower)))),
		PointSize:      model.PointSizeLimits.Clamp(params.PointSize),
	}
}
