package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/internal/controls"
	"github.com/signalsfoundry/rf-heatmap/internal/observability"
	"github.com/signalsfoundry/rf-heatmap/internal/scene"
	"github.com/signalsfoundry/rf-heatmap/kb"
	"github.com/signalsfoundry/rf-heatmap/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

type harness struct {
	client    *ControlClient
	panel     *controls.Panel
	store     *kb.KnowledgeBase
	collector *observability.HeatmapCollector
}

func startServer(t *testing.T, objs ...model.SceneObject) *harness {
	t.Helper()

	store := kb.NewKnowledgeBase()
	for _, o := range objs {
		if err := store.AddObject(o); err != nil {
			t.Fatalf("AddObject: %v", err)
		}
	}
	collector, err := observability.NewHeatmapCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewHeatmapCollector: %v", err)
	}
	gen := core.NewGenerator(store, scene.NewScanner(store),
		core.WithRandSource(core.NewRandSource(7)),
		core.WithMetricsRecorder(collector),
	)
	panel := controls.NewPanel(gen)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	server := NewServer(panel, nil, collector)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{client: NewControlClient(conn), panel: panel, store: store, collector: collector}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGetParametersReturnsDefaults(t *testing.T) {
	h := startServer(t)
	resp, err := h.client.GetParameters(testContext(t))
	if err != nil {
		t.Fatalf("GetParameters: %v", err)
	}
	got := resp.AsMap()
	if got["max_range"] != 150.0 || got["min_range"] != 5.0 || got["points_per_tower"] != 400.0 || got["point_size"] != 4.0 {
		t.Fatalf("unexpected parameters %v", got)
	}
}

func TestSetParameterClamps(t *testing.T) {
	h := startServer(t)
	resp, err := h.client.SetParameter(testContext(t), "max_range", 9000)
	if err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	got := resp.AsMap()
	if got["value"] != 2000.0 || got["clamped"] != true || got["label"] != "2000m" {
		t.Fatalf("unexpected response %v", got)
	}
	if h.panel.Parameters().MaxRange != 2000 {
		t.Fatalf("panel not updated: %+v", h.panel.Parameters())
	}
}

func TestSetParameterRejectsUnknownName(t *testing.T) {
	h := startServer(t)
	_, err := h.client.SetParameter(testContext(t), "gain", 3)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestRegenerateRunsPass(t *testing.T) {
	h := startServer(t,
		model.SceneObject{Path: "/World/Tower_1", Name: "Tower_1", Xformable: true},
		model.SceneObject{Path: "/World/Tower_2", Name: "Tower_2", Xformable: true, Translation: model.Vec3{X: 500}},
	)
	ctx := testContext(t)

	if _, err := h.client.GetLastPass(ctx); status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound before the first pass, got %v", err)
	}

	resp, err := h.client.Regenerate(ctx)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	got := resp.AsMap()
	if got["points"] != 800.0 || got["visible"] != true {
		t.Fatalf("unexpected pass summary %v", got)
	}
	if towers, _ := got["towers"].([]any); len(towers) != 2 {
		t.Fatalf("expected 2 towers, got %v", got["towers"])
	}

	cloud, ok := h.store.PointCloud(core.DisplayPath)
	if !ok || len(cloud.Points) != 800 {
		t.Fatalf("display cloud not written: ok=%v points=%d", ok, len(cloud.Points))
	}

	last, err := h.client.GetLastPass(ctx)
	if err != nil {
		t.Fatalf("GetLastPass: %v", err)
	}
	if last.AsMap()["points"] != 800.0 {
		t.Fatalf("last pass mismatch: %v", last.AsMap())
	}

	if v := testutil.ToFloat64(h.collector.RPCRequests.WithLabelValues("ControlService", "Regenerate", "OK")); v != 1 {
		t.Fatalf("heatmap_rpc_requests_total{Regenerate,OK} = %v, want 1", v)
	}
	if v := testutil.ToFloat64(h.collector.Passes.WithLabelValues(observability.OutcomeOK)); v != 1 {
		t.Fatalf("heatmap_passes_total{ok} = %v, want 1", v)
	}
}
