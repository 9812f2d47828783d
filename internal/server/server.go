package server

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/diogomassis/payments-core/internal/logger"
)

// LedgerService is the health service name that tracks the ledger backend.
const LedgerService = "payments.ledger"

// HealthServer exposes dependency health over the standard gRPC health
// protocol so orchestrators can probe the process without HTTP.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	log    zerolog.Logger
}

func NewHealthServer(log zerolog.Logger) *HealthServer {
	s := &HealthServer{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		log:    logger.Component(log, "grpc"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(LedgerService, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetServing records the status of service. The empty service name reports
// the process as a whole.
func (s *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

func (s *HealthServer) Serve(listener net.Listener) error {
	s.log.Info().Str("addr", listener.Addr().String()).Msg("gRPC health server listening")
	if err := s.grpc.Serve(listener); err != nil {
		return fmt.Errorf("[grpc] failed to serve: %w", err)
	}
	return nil
}

func (s *HealthServer) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
