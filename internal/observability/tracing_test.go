package observability

import (
	"context"
	"testing"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("HEATMAP_TRACING_ENABLED", "")
	t.Setenv("HEATMAP_TRACING_EXPORTER", "")
	t.Setenv("HEATMAP_TRACING_SERVICE_NAME", "")
	t.Setenv("HEATMAP_TRACING_SAMPLE_RATIO", "2")

	cfg := TracingConfigFromEnv()
	if cfg.Enabled {
		t.Fatalf("tracing should default to disabled")
	}
	if cfg.Exporter != "stdout" || cfg.ServiceName != "rf-heatmap" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("out-of-range ratio should fall back to 1, got %v", cfg.SampleRatio)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil {
		t.Fatalf("expected an error for an unsupported exporter")
	}
}
