package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/signalsfoundry/rf-heatmap/core"
	"github.com/signalsfoundry/rf-heatmap/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("NewHeatmapCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/rfheatmap.v1.ControlService/SetParameter"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(10 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("ControlService", "SetParameter", "OK")); got != 1 {
		t.Fatalf("heatmap_rpc_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "heatmap_rpc_duration_seconds", map[string]string{
		"service": "ControlService",
		"method":  "SetParameter",
	}); count != 1 {
		t.Fatalf("heatmap_rpc_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("NewHeatmapCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/rfheatmap.v1.ControlService/Regenerate"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "boom")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("ControlService", "Regenerate", "InvalidArgument")); got != 1 {
		t.Fatalf("heatmap_rpc_requests_total error label = %v, want 1", got)
	}
}

func TestObservePassUpdatesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("NewHeatmapCollector: %v", err)
	}

	res := &core.PassResult{
		Towers:  []model.TowerPosition{{Name: "Tower_A"}, {Name: "Tower_B"}},
		Samples: make([]model.SamplePoint, 6),
		Statistics: core.Statistics{
			Total:  6,
			Counts: [3]int{1, 2, 3},
		},
	}
	collector.ObservePass(res, 20*time.Millisecond, nil)

	if got := testutil.ToFloat64(collector.Passes.WithLabelValues(OutcomeOK)); got != 1 {
		t.Fatalf("heatmap_passes_total{outcome=ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Towers); got != 2 {
		t.Fatalf("heatmap_towers = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Points); got != 6 {
		t.Fatalf("heatmap_points = %v, want 6", got)
	}
	if got := testutil.ToFloat64(collector.BandPoints.WithLabelValues("strong")); got != 3 {
		t.Fatalf("heatmap_band_points{band=strong} = %v, want 3", got)
	}
}

func TestObservePassOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("NewHeatmapCollector: %v", err)
	}

	collector.ObservePass(&core.PassResult{Towers: []model.TowerPosition{{Name: "T"}}, Samples: make([]model.SamplePoint, 4)}, time.Millisecond, nil)
	collector.ObservePass(&core.PassResult{}, time.Millisecond, nil)
	collector.ObservePass(nil, time.Millisecond, errors.New("store offline"))

	for outcome, want := range map[string]float64{OutcomeOK: 1, OutcomeEmpty: 1, OutcomeError: 1} {
		if got := testutil.ToFloat64(collector.Passes.WithLabelValues(outcome)); got != want {
			t.Fatalf("heatmap_passes_total{outcome=%s} = %v, want %v", outcome, got, want)
		}
	}
	// The empty pass resets the gauges; the failed one leaves them alone.
	if got := testutil.ToFloat64(collector.Points); got != 0 {
		t.Fatalf("heatmap_points = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(collector.PassDuration); got != 1 {
		t.Fatalf("pass duration series = %d, want 1", got)
	}
}

func TestNewHeatmapCollectorIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("first NewHeatmapCollector: %v", err)
	}
	second, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("second NewHeatmapCollector: %v", err)
	}
	if first.Passes != second.Passes {
		t.Fatalf("expected the existing passes counter to be reused")
	}
}

func TestMetricsHandlerExposesHeatmapMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewHeatmapCollector(reg)
	if err != nil {
		t.Fatalf("NewHeatmapCollector: %v", err)
	}
	collector.ObservePass(&core.PassResult{Towers: []model.TowerPosition{{Name: "T"}}, Samples: make([]model.SamplePoint, 7)}, time.Millisecond, nil)
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"heatmap_rpc_requests_total",
		"heatmap_rpc_duration_seconds",
		"heatmap_passes_total",
		"heatmap_pass_duration_seconds",
		"heatmap_towers 1",
		"heatmap_points 7",
		"heatmap_band_points",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output:\n%s", metric, body)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := map[string][2]string{
		"":                                 {"unknown", "unknown"},
		"/rfheatmap.v1.ControlService/Get": {"ControlService", "Get"},
		"Regenerate":                       {"unknown", "unknown"},
	}
	for in, want := range cases {
		svc, m := SplitMethod(in)
		if svc != want[0] || m != want[1] {
			t.Errorf("SplitMethod(%q) = %q, %q; want %q, %q", in, svc, m, want[0], want[1])
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
