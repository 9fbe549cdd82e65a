package api

import (
	"context"
	"fmt"
	"net"
	"time"

	"backoffice/internal/config"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCServer serves the standard health service so orchestrators can probe the bot.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	pinger   Pinger
	log      zerolog.Logger
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewGRPCServer(cfg config.APIConfig, pinger Pinger, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryUnaryInterceptor(logger),
		LoggingUnaryInterceptor(logger),
		RateLimitUnaryInterceptor(newRateLimiter(cfg.RateLimit)),
	))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	return &GRPCServer{
		server:   grpcServer,
		health:   hs,
		listener: lis,
		pinger:   pinger,
		log:      serverLogger,
	}, nil
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC health listening")
	return s.server.Serve(s.listener)
}

// WatchHealth pings the store every interval and flips the overall serving status.
func (s *GRPCServer) WatchHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.checkHealth(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *GRPCServer) checkHealth(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
}

func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out; forcing stop")
		s.server.Stop()
	}
}
