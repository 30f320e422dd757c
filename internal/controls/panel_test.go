package controls

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"
)

type stubGenerator struct {
	calls []model.HeatmapParameters
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, params model.HeatmapParameters) (*core.PassResult, error) {
	g.calls = append(g.calls, params)
	if g.err != nil {
		return nil, g.err
	}
	return &core.PassResult{Parameters: params}, nil
}

func TestPanelDefaults(t *testing.T) {
	p := NewPanel(&stubGenerator{})
	if got := p.Parameters(); got != model.DefaultParameters() {
		t.Fatalf("Parameters() = %+v, want defaults", got)
	}
}

func TestSettersClampToSliderRanges(t *testing.T) {
	p := NewPanel(&stubGenerator{})

	if got := p.SetMaxRange(5000); got != 2000 {
		t.Errorf("SetMaxRange(5000) = %v, want 2000", got)
	}
	if got := p.SetMinRange(0); got != 1 {
		t.Errorf("SetMinRange(0) = %v, want 1", got)
	}
	if got := p.SetPointsPerTower(10); got != 100 {
		t.Errorf("SetPointsPerTower(10) = %v, want 100", got)
	}
	if got := p.SetPointSize(3.5); got != 3.5 {
		t.Errorf("SetPointSize(3.5) = %v, want 3.5", got)
	}

	want := model.HeatmapParameters{MaxRange: 2000, MinRange: 1, PointsPerTower: 100, PointSize: 3.5}
	if got := p.Parameters(); got != want {
		t.Fatalf("Parameters() = %+v, want %+v", got, want)
	}
}

func TestSetRejectsUnknownAndNaN(t *testing.T) {
	p := NewPanel(&stubGenerator{})
	if _, err := p.Set("gain", 3); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	if _, err := p.Get("gain"); !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("expected ErrUnknownParameter, got %v", err)
	}
	if _, err := p.Set(MaxRange, math.NaN()); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestOnChangeNotifies(t *testing.T) {
	p := NewPanel(&stubGenerator{})
	var changes []Change
	remove := p.OnChange(func(c Change) { changes = append(changes, c) })

	p.SetMaxRange(300)
	p.SetPointsPerTower(1234)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Parameter != MaxRange || changes[0].Label != "300m" || changes[0].Params.MaxRange != 300 {
		t.Fatalf("unexpected first change %+v", changes[0])
	}
	if changes[1].Label != "1234" {
		t.Fatalf("points label = %q", changes[1].Label)
	}

	remove()
	p.SetPointSize(2)
	if len(changes) != 2 {
		t.Fatalf("listener should be removed")
	}
}

func TestTriggerUsesSnapshot(t *testing.T) {
	gen := &stubGenerator{}
	var lines []string
	p := NewPanel(gen, WithReporter(core.ReporterFunc(func(l string) { lines = append(lines, l) })))
	p.SetMaxRange(400)

	res, err := p.Trigger(context.Background())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(gen.calls) != 1 || gen.calls[0].MaxRange != 400 {
		t.Fatalf("generator calls = %+v", gen.calls)
	}
	if p.LastResult() != res {
		t.Fatalf("LastResult should be the triggered pass")
	}
	if len(lines) == 0 || !strings.Contains(lines[0], "Refreshing heatmap") {
		t.Fatalf("missing refresh banner: %q", lines)
	}
}

func TestStartSkipsRefreshLine(t *testing.T) {
	gen := &stubGenerator{}
	var lines []string
	p := NewPanel(gen, WithReporter(core.ReporterFunc(func(l string) { lines = append(lines, l) })))
	res, err := p.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("initial pass should not print a refresh line: %q", lines)
	}
	if p.LastResult() != res || len(gen.calls) != 1 {
		t.Fatalf("initial pass not recorded")
	}
}

func TestTriggerWarnsOnDegenerateRange(t *testing.T) {
	gen := &stubGenerator{}
	var lines []string
	p := NewPanel(gen,
		WithInitial(model.HeatmapParameters{MaxRange: 50, MinRange: 50, PointsPerTower: 400, PointSize: 4}),
		WithReporter(core.ReporterFunc(func(l string) { lines = append(lines, l) })),
	)
	if err := p.Validate(); !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("Validate() = %v, want ErrDegenerateRange", err)
	}
	if _, err := p.Trigger(context.Background()); err != nil {
		t.Fatalf("degenerate trigger should still run: %v", err)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("generator should be called once")
	}
	found := false
	for _, l := range lines {
		if strings.HasPrefix(l, "WARNING:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a warning line, got %q", lines)
	}
}

func TestOnPassNotifiesSuccessfulPasses(t *testing.T) {
	gen := &stubGenerator{}
	p := NewPanel(gen)
	var seen []*core.PassResult
	remove := p.OnPass(func(r *core.PassResult) { seen = append(seen, r) })

	res, err := p.Trigger(context.Background())
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(seen) != 1 || seen[0] != res {
		t.Fatalf("pass listener saw %v", seen)
	}

	gen.err = errors.New("scene offline")
	_, _ = p.Trigger(context.Background())
	if len(seen) != 1 {
		t.Fatalf("failed passes must not notify")
	}

	remove()
	gen.err = nil
	_, _ = p.Trigger(context.Background())
	if len(seen) != 1 {
		t.Fatalf("listener should be removed")
	}
}

func TestTriggerPropagatesErrors(t *testing.T) {
	p := NewPanel(&stubGenerator{err: errors.New("stage locked")})
	if _, err := p.Trigger(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if p.LastResult() != nil {
		t.Fatalf("failed pass must not replace the last result")
	}
}

func TestWithInitialClamps(t *testing.T) {
	p := NewPanel(nil, WithInitial(model.HeatmapParameters{MaxRange: 1, MinRange: 100, PointsPerTower: 9000, PointSize: 0}))
	want := model.HeatmapParameters{MaxRange: 50, MinRange: 50, PointsPerTower: 4000, PointSize: 1}
	if got := p.Parameters(); got != want {
		t.Fatalf("Parameters() = %+v, want %+v", got, want)
	}
	if _, err := p.Trigger(context.Background()); err == nil {
		t.Fatalf("expected error without generator")
	}
}
