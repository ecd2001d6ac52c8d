package rpc

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/znichola/red-tetris/logger"
)

// HealthServer serves the standard gRPC health service for load balancers.
type HealthServer struct {
	listener net.Listener
	grpc     *grpc.Server
	health   *health.Server
}

func NewHealthServer(addr string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{listener: listener, grpc: server, health: hs}, nil
}

func (h *HealthServer) Addr() net.Addr {
	return h.listener.Addr()
}

// SetServing flips the status reported for the whole server.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
}

// Start blocks until Stop.
func (h *HealthServer) Start() {
	logger.Log.Infof("gRPC health server listening on %s", h.listener.Addr())
	if err := h.grpc.Serve(h.listener); err != nil {
		logger.Log.Errorf("gRPC health server: %v", err)
	}
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
