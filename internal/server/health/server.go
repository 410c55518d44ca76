// Package health serves the standard grpc.health.v1 protocol on its own
// listener. The server reports SERVING while the store answers a ping.
package health

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/microblog/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName may be asked about besides the empty whole-server name.
const ServiceName = "microblog"

const pingTimeout = 2 * time.Second

// Pinger is satisfied by dbx.Store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthServer struct {
	healthpb.UnimplementedHealthServer
	address string
	store   Pinger
	logger  logging.Logger
}

func NewHealthServer(a string, l logging.Logger, store Pinger) *HealthServer {
	return &HealthServer{
		address: a,
		store:   store,
		logger:  l.With("module", "grpc_health"),
	}
}

func (s *HealthServer) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if req.GetService() != "" && req.GetService() != ServiceName {
		return nil, status.Error(codes.NotFound, "unknown service")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.store.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "store ping failed", "error", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
