package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/rf-heatmap/model"
)

// scriptedRand replays a fixed sequence of values, cycling when exhausted.
type scriptedRand struct {
	values []float64
	next   int
}

func (r *scriptedRand) Float64() float64 {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}

func constRand(v float64) *scriptedRand { return &scriptedRand{values: []float64{v}} }

func approxEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

type staticTowers []model.TowerPosition

func (s staticTowers) Towers(context.Context) ([]model.TowerPosition, error) { return s, nil }

// fakeDisplay records every display write so tests can assert on the final
// state of the point cloud.
type fakeDisplay struct {
	deleted    []string
	created    []string
	visibility model.Visibility
	points     []model.Vec3
	colors     []model.Vec3
	widths     []float64
	failOn     string
}

func (f *fakeDisplay) fail(op string) error {
	if f.failOn == op {
		return fmt.Errorf("%s failed", op)
	}
	return nil
}

func (f *fakeDisplay) DeleteObjectAt(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return f.fail("delete")
}

func (f *fakeDisplay) CreatePointCloudAt(_ context.Context, path string) (Handle, error) {
	f.created = append(f.created, path)
	return Handle(path), f.fail("create")
}

func (f *fakeDisplay) SetVisibility(_ context.Context, _ Handle, v model.Visibility) error {
	f.visibility = v
	return f.fail("visibility")
}

func (f *fakeDisplay) SetPoints(_ context.Context, _ Handle, pts []model.Vec3) error {
	f.points = pts
	return f.fail("points")
}

func (f *fakeDisplay) SetColors(_ context.Context, _ Handle, cols []model.Vec3) error {
	f.colors = cols
	return f.fail("colors")
}

func (f *fakeDisplay) SetWidths(_ context.Context, _ Handle, w []float64) error {
	f.widths = w
	return f.fail("widths")
}
