package grpc

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reporting settlement readiness.
const ServiceName = "marketd.Settlement"

// ReadinessChecker reports whether the market can serve operations.
// It is implemented by *settlement.Engine.
type ReadinessChecker interface {
	Initialized(ctx context.Context) (bool, error)
}

// Server is the gRPC server exposing the health service.
type Server struct {
	mu sync.RWMutex

	grpcServer *grpc.Server
	health     *health.Server
	checker    ReadinessChecker
	config     *ServerConfig
	logger     *zap.Logger

	listener net.Listener
	running  bool
}

// NewServer creates a new gRPC server with the given configuration.
func NewServer(cfg *ServerConfig, checker ReadinessChecker, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("module", "grpc"))

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.UnaryInterceptor(UnaryServerInterceptor(logger)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer: grpcServer,
		health:     hs,
		checker:    checker,
		config:     cfg,
		logger:     logger,
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Refresh re-evaluates readiness and updates the reported status.
func (s *Server) Refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		ok, err := s.checker.Initialized(ctx)
		if err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
		}
		if err != nil || !ok {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
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

	s.Refresh(ctx)
	s.logger.Info("gRPC server listening", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Run starts the server, refreshes readiness every CheckInterval and stops
// gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return nil
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Stop marks every service NOT_SERVING and stops gracefully.
func (s *Server) Stop() {
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
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on, or "" when it is
// not running.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// UnaryServerInterceptor logs failed unary calls.
func UnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Debug("gRPC call failed",
				zap.String("method", info.FullMethod),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
		}
		return resp, err
	}
}
