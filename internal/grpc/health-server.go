package grpc

import (
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes the standard gRPC health service for mesh probes.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
}

func NewHealthServer(serviceName string) *HealthServer {
	server := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{
		server: server,
		health: healthSrv,
	}
}

func (s *HealthServer) Serve(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port %s: %w", port, err)
	}

	log.Printf("gRPC health server listening on port %s", port)
	return s.server.Serve(listener)
}

func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
