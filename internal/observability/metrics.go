package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalsfoundry/rf-heatmap/core"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// HeatmapCollector bundles Prometheus metrics for generation passes and the
// control surfaces, and provides helpers to wire them into gRPC servers and
// HTTP handlers.
type HeatmapCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Passes       *prometheus.CounterVec
	PassDuration prometheus.Histogram
	Towers       prometheus.Gauge
	Points       prometheus.Gauge
	BandPoints   *prometheus.GaugeVec
}

var _ core.PassMetricsRecorder = (*HeatmapCollector)(nil)

// NewHeatmapCollector registers heatmap Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewHeatmapCollector(reg prometheus.Registerer) (*HeatmapCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_rpc_requests_total",
		Help: "Total number of handled control RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "heatmap_rpc_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heatmap_rpc_duration_seconds",
		Help:    "Control RPC latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service", "method"})
	durations, err = registerHistogramVec(reg, durations, "heatmap_rpc_duration_seconds")
	if err != nil {
		return nil, err
	}

	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_passes_total",
		Help: "Generation passes, labeled by outcome (ok, empty, error).",
	}, []string{"outcome"})
	passes, err = registerCounterVec(reg, passes, "heatmap_passes_total")
	if err != nil {
		return nil, err
	}

	passDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "heatmap_pass_duration_seconds",
		Help:    "Wall time of one generation pass in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}), "heatmap_pass_duration_seconds")
	if err != nil {
		return nil, err
	}

	towers, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "heatmap_towers",
		Help: "Towers found by the most recent successful pass.",
	}), "heatmap_towers")
	if err != nil {
		return nil, err
	}
	points, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "heatmap_points",
		Help: "Points emitted by the most recent successful pass.",
	}), "heatmap_points")
	if err != nil {
		return nil, err
	}

	bands := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "heatmap_band_points",
		Help: "Points per signal band in the most recent successful pass.",
	}, []string{"band"})
	bands, err = registerGaugeVec(reg, bands, "heatmap_band_points")
	if err != nil {
		return nil, err
	}

	return &HeatmapCollector{
		gatherer:     gatherer,
		RPCRequests:  requests,
		RPCDurations: durations,
		Passes:       passes,
		PassDuration: passDuration,
		Towers:       towers,
		Points:       points,
		BandPoints:   bands,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *HeatmapCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *HeatmapCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Pass outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// ObservePass satisfies core.PassMetricsRecorder. Gauges only move on
// passes that completed; a failed pass leaves the previous picture in place.
func (c *HeatmapCollector) ObservePass(res *core.PassResult, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	if c.PassDuration != nil {
		c.PassDuration.Observe(elapsed.Seconds())
	}

	outcome := OutcomeOK
	switch {
	case err != nil || res == nil:
		outcome = OutcomeError
	case len(res.Towers) == 0:
		outcome = OutcomeEmpty
	}
	if c.Passes != nil {
		c.Passes.WithLabelValues(outcome).Inc()
	}
	if outcome == OutcomeError {
		return
	}

	if c.Towers != nil {
		c.Towers.Set(float64(len(res.Towers)))
	}
	if c.Points != nil {
		c.Points.Set(float64(len(res.Samples)))
	}
	if c.BandPoints != nil {
		for _, b := range core.Bands {
			c.BandPoints.WithLabelValues(b.String()).Set(float64(res.Statistics.Count(b)))
		}
	}
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
