// Package health exposes the standard gRPC health service for the webhook
// process, driven by periodic dependency checks.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ServiceName is the health service name reported for the webhook.
const ServiceName = "profiledesk.Webhook"

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Server serves grpc.health.v1.Health.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer creates a health server. Both the overall status and
// ServiceName start as SERVING.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gs := grpc.NewServer(grpc.KeepaliveParams(keepalive.ServerParameters{
		Time:    2 * time.Minute,
		Timeout: 10 * time.Second,
	}))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpc: gs, health: hs, logger: logger}
}

// Start listens on addr and serves in the background. It returns the bound
// address.
func (s *Server) Start(addr string) (net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for health checks on %s: %w", addr, err)
	}
	go func() {
		if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("Health server failed", "error", err)
		}
	}()
	s.logger.Info("Health server listening", "addr", lis.Addr().String())
	return lis.Addr(), nil
}

// SetServing updates the status of ServiceName and the overall server.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

// Watch runs check every interval and mirrors its outcome in the served
// status until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration, check CheckFunc) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		healthy := true
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, cancel := context.WithTimeout(ctx, interval)
				err := check(checkCtx)
				cancel()
				if ok := err == nil; ok != healthy {
					healthy = ok
					s.SetServing(ok)
					if ok {
						s.logger.Info("Dependency check recovered")
					} else {
						s.logger.Warn("Dependency check failed", "error", err)
					}
				}
			}
		}
	}()
}

// Stop marks everything NOT_SERVING and stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
