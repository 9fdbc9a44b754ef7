// Package grpc serves the AdminAuth service with every method except SignIn
// behind the bearer token interceptor.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server/authgate"
	"google.golang.org/grpc"
)

// Authenticator checks admin credentials.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

type GRPCServer struct {
	address string
	auth    Authenticator
	gate    *authgate.Gate
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, auth Authenticator, gate *authgate.Gate) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    auth,
		gate:    gate,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.gate.UnaryInterceptor(MethodSignIn)))
	srv.RegisterService(&AdminAuthServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
