package service

import (
	"context"
	"strings"
	"time"

	"github.com/DioGolang/GoCommon/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// NewServer returns a gRPC server traced through otelgrpc, with request
// durations recorded and the health service registered.
func NewServer(m metrics.Metrics, health *Health) *grpc.Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(MetricsInterceptor(m)),
	)
	healthpb.RegisterHealthServer(s, health.Server())
	return s
}

func MetricsInterceptor(m metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		svc, method := splitMethod(info.FullMethod)
		m.ObserveGRPCRequestDuration(svc, method, status.Code(err).String(), time.Since(start).Seconds())
		return resp, err
	}
}

// splitMethod splits "/package.Service/Method".
func splitMethod(full string) (string, string) {
	svc, method, ok := strings.Cut(strings.TrimPrefix(full, "/"), "/")
	if !ok {
		return "unknown", full
	}
	return svc, method
}
