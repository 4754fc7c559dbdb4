// Package admin exposes the daemon's operational surface: a gRPC health
// endpoint for orchestration probes and an HTTP listener with Prometheus
// metrics and a JSON status page. Nothing here touches trading state;
// everything is read-only.
package admin

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCConfig holds the gRPC listener configuration.
type GRPCConfig struct {
	// Address is the address to listen on (e.g., "127.0.0.1:50051").
	Address string

	// MaxRecvMsgSize is the maximum message size in bytes the server can
	// receive. Default is 4MB if not set.
	MaxRecvMsgSize int

	// MaxSendMsgSize is the maximum message size in bytes the server can
	// send. Default is 4MB if not set.
	MaxSendMsgSize int
}

// DefaultGRPCConfig returns a GRPCConfig with default values.
func DefaultGRPCConfig() *GRPCConfig {
	return &GRPCConfig{
		Address:        "127.0.0.1:50051",
		MaxRecvMsgSize: 4 * 1024 * 1024,
		MaxSendMsgSize: 4 * 1024 * 1024,
	}
}

// Validate validates the listener configuration.
func (c *GRPCConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("max_recv_msg_size must be positive")
	}
	if c.MaxSendMsgSize <= 0 {
		return fmt.Errorf("max_send_msg_size must be positive")
	}
	return nil
}

// GRPCServer serves the health service for liveness and readiness probes.
type GRPCServer struct {
	mu sync.RWMutex

	grpcServer *grpc.Server
	health     *health.Server
	config     *GRPCConfig
	listener   net.Listener
	running    bool
}

// NewGRPCServer creates the health server. It is created NOT_SERVING;
// MarkReady flips it once the daemon finishes startup.
func NewGRPCServer(cfg *GRPCConfig) (*GRPCServer, error) {
	if cfg == nil {
		cfg = DefaultGRPCConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
	}
	grpcServer := grpc.NewServer(opts...)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	return &GRPCServer{
		grpcServer: grpcServer,
		health:     healthSrv,
		config:     cfg,
	}, nil
}

// StartAsync starts the server in a goroutine and returns immediately.
func (s *GRPCServer) StartAsync() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			_ = err
		}
	}()
	return nil
}

// MarkReady flips the health status to SERVING.
func (s *GRPCServer) MarkReady() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// MarkNotReady flips the health status back to NOT_SERVING, typically
// during shutdown so probes drain traffic first.
func (s *GRPCServer) MarkNotReady() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
}

// Stop gracefully stops the server, waiting for in-flight calls.
func (s *GRPCServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.running = false
}

// IsRunning returns true if the server is currently running.
func (s *GRPCServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on. Returns empty
// string if the server is not running.
func (s *GRPCServer) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
