package service

import (
	"context"
	"time"

	"github.com/DioGolang/GoCommon/pkg/logger"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Check probes one dependency of the service.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Health reports SERVING for the whole server while every check passes.
type Health struct {
	server *health.Server
	checks []Check
	logger logger.Logger
}

func NewHealth(log logger.Logger, checks ...Check) *Health {
	return &Health{server: health.NewServer(), checks: checks, logger: log}
}

func (h *Health) Server() *health.Server {
	return h.server
}

// Probe runs every check once and publishes the result.
func (h *Health) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	state := healthpb.HealthCheckResponse_SERVING
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			h.logger.Warn(ctx, "Health check failed", logger.String("check", c.Name), logger.WithError(err))
			state = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.server.SetServingStatus("", state)
	return state
}

// Run probes every interval until ctx is done, then marks the server as
// shutting down.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval)
			h.Probe(probeCtx)
			cancel()
		}
	}
}
