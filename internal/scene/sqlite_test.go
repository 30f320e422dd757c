package scene

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"
)

func openTestDB(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "scene.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteObjectsRoundTrip(t *testing.T) {
	store := openTestDB(t)
	if _, err := LoadScene(store, strings.NewReader(sampleScene)); err != nil {
		t.Fatalf("LoadScene: %v", err)
	}

	objs, err := store.ListObjects(context.Background())
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(objs) != 3 {
		t.Fatalf("expected 3 objects, got %d", len(objs))
	}
	// Ordered by path: Looks, Tower_North, Tower_South.
	if objs[1].Name != "Tower_North" || !objs[1].HasTag(model.TowerTag) || objs[1].Translation.Y != 120 {
		t.Fatalf("unexpected Tower_North %+v", objs[1])
	}
	if objs[0].Xformable {
		t.Fatalf("Looks should not be xformable")
	}
	if err := store.AddObject(model.SceneObject{Path: "/World/Looks"}); !errors.Is(err, ErrObjectExists) {
		t.Fatalf("expected ErrObjectExists, got %v", err)
	}
}

func TestSQLitePointCloud(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)

	h, err := store.CreatePointCloudAt(ctx, core.DisplayPath)
	if err != nil {
		t.Fatalf("CreatePointCloudAt: %v", err)
	}
	if err := store.SetPoints(ctx, h, []model.Vec3{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	if err := store.SetColors(ctx, h, []model.Vec3{{X: 1}, {Y: 1}}); err != nil {
		t.Fatalf("SetColors: %v", err)
	}
	if err := store.SetWidths(ctx, h, []float64{2, 2}); err != nil {
		t.Fatalf("SetWidths: %v", err)
	}
	if err := store.SetVisibility(ctx, h, model.VisibilityInvisible); err != nil {
		t.Fatalf("SetVisibility: %v", err)
	}

	cloud, err := store.PointCloud(ctx, core.DisplayPath)
	if err != nil {
		t.Fatalf("PointCloud: %v", err)
	}
	if len(cloud.Points) != 2 || cloud.Points[1].Z != 6 || len(cloud.Colors) != 2 || len(cloud.Widths) != 2 {
		t.Fatalf("unexpected cloud %+v", cloud)
	}
	if cloud.Visibility != model.VisibilityInvisible {
		t.Fatalf("visibility = %q", cloud.Visibility)
	}

	// A shorter write replaces, never merges.
	if err := store.SetPoints(ctx, h, []model.Vec3{{X: 9}}); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	cloud, _ = store.PointCloud(ctx, core.DisplayPath)
	if len(cloud.Points) != 1 {
		t.Fatalf("expected 1 point after replace, got %d", len(cloud.Points))
	}

	if err := store.DeleteObjectAt(ctx, core.DisplayPath); err != nil {
		t.Fatalf("DeleteObjectAt: %v", err)
	}
	if _, err := store.PointCloud(ctx, core.DisplayPath); !errors.Is(err, ErrNotPointCloud) {
		t.Fatalf("expected ErrNotPointCloud after delete, got %v", err)
	}
	if err := store.SetWidths(ctx, h, []float64{1}); !errors.Is(err, ErrNotPointCloud) {
		t.Fatalf("expected ErrNotPointCloud for stale handle, got %v", err)
	}
}

func TestSQLiteBackedPass(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t)
	if _, err := LoadScene(store, strings.NewReader(sampleScene)); err != nil {
		t.Fatalf("LoadScene: %v", err)
	}

	params := model.HeatmapParameters{MaxRange: 150, MinRange: 5, PointsPerTower: 100, PointSize: 3}
	gen := core.NewGenerator(store, NewScanner(store), core.WithRandSource(core.NewRandSource(1)))
	res, err := gen.Generate(ctx, params)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Only Tower_North is visible.
	if len(res.Towers) != 1 || len(res.Samples) != 100 {
		t.Fatalf("towers=%d samples=%d", len(res.Towers), len(res.Samples))
	}
	cloud, err := store.PointCloud(ctx, core.DisplayPath)
	if err != nil {
		t.Fatalf("PointCloud: %v", err)
	}
	if len(cloud.Points) != 100 || len(cloud.Colors) != 100 || len(cloud.Widths) != 100 {
		t.Fatalf("persisted cloud sizes %d/%d/%d", len(cloud.Points), len(cloud.Colors), len(cloud.Widths))
	}
}
