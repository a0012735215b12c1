package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/tracker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Tracker is the part of tracker.Service the gRPC surface needs.
type Tracker interface {
	View() tracker.View
	Sync(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	tracker  Tracker
	logger   logging.Logger
	apiToken string
}

// NewGRPCServer builds a server for t. When apiToken is set, Sync requires
// it as a bearer token in the authorization metadata.
func NewGRPCServer(a string, l logging.Logger, t Tracker, apiToken string) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		tracker:  t,
		apiToken: apiToken,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.apiTokenInterceptor))

	RegisterTrackerServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
