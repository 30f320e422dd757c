package core

import (
	"context"

	"github.com/signalsfoundry/rf-heatmap/model"
)

// DisplayPath is where each pass writes its point cloud.
const DisplayPath = "/World/Signal_Visualizer"

// Handle identifies a point-cloud object created in a scene store.
type Handle string

// DisplayStore is the write side of the scene store used to publish a pass.
type DisplayStore interface {
	DeleteObjectAt(ctx context.Context, path string) error
	CreatePointCloudAt(ctx context.Context, path string) (Handle, error)
	SetVisibility(ctx context.Context, h Handle, v model.Visibility) error
	SetPoints(ctx context.Context, h Handle, points []model.Vec3) error
	SetColors(ctx context.Context, h Handle, colors []model.Vec3) error
	SetWidths(ctx context.Context, h Handle, widths []float64) error
}

// SceneReader is the read side of the scene store.
type SceneReader interface {
	ListObjects(ctx context.Context) ([]model.SceneObject, error)
}

// SceneStore is the full scene-graph collaborator.
type SceneStore interface {
	SceneReader
	DisplayStore
}

// TowerSource yields the already-filtered tower positions for one pass.
type TowerSource interface {
	Towers(ctx context.Context) ([]model.TowerPosition, error)
}

// ParameterSource exposes the current heatmap parameters.
type ParameterSource interface {
	Parameters() model.HeatmapParameters
}

// Reporter receives human-readable progress lines.
type Reporter interface {
	Log(line string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(line string)

// Log calls f(line).
func (f ReporterFunc) Log(line string) { f(line) }

type discardReporter struct{}

func (discardReporter) Log(string) {}
