package rpc

import (
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
	"github.com/signalsfoundry/rf-heatmap/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// NewServer returns a grpc.Server with the control service registered and
// the request-id, tracing and metrics interceptors chained in that order.
// collector may be nil.
func NewServer(panel Panel, log logging.Logger, collector *observability.HeatmapCollector, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}

	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, opts...)

	server := grpc.NewServer(opts...)
	RegisterControlServer(server, NewControlService(panel, log))
	return server
}
