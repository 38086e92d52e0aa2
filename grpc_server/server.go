// Package grpcserver runs the operational gRPC endpoint: the standard
// health service plus reflection.
package grpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"foodgram/interceptors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server wraps the grpc server and its health state.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	name   string
	log    *zap.Logger
}

// New builds the server. name is reported as a health service in addition
// to the overall "" entry.
func New(name string, log *zap.Logger) *Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		interceptors.RecoveryInterceptor(log),
		interceptors.ZapLoggingInterceptor(log),
	))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &Server{grpc: srv, health: hs, name: name, log: log}
}

// SetServing publishes the serving status for both health entries.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(s.name, st)
}

// Watch re-probes ping every interval and updates the health status until
// ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration, ping func(context.Context) error) {
	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, interval/2)
		defer cancel()
		err := ping(pctx)
		if err != nil {
			s.log.Warn("Health probe failed", zap.Error(err))
		}
		s.SetServing(err == nil)
	}
	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

// Serve listens on port and blocks until Stop.
func (s *Server) Serve(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %d: %w", port, err)
	}
	return s.ServeListener(lis)
}

func (s *Server) ServeListener(lis net.Listener) error {
	s.log.Info("gRPC server listening", zap.String("address", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil {
		return fmt.Errorf("gRPC server stopped: %w", err)
	}
	return nil
}

// Stop marks the service as not serving and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
