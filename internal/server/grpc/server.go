// Package grpc exposes the vault over gRPC: unary calls for accounts and
// secrets plus a server stream delivering breach alerts.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
	"github.com/dmitrijs2005/vaultwatch/internal/server/breach"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/dmitrijs2005/vaultwatch/internal/server/notify"
	"github.com/dmitrijs2005/vaultwatch/internal/server/services"
	"google.golang.org/grpc"
)

// Users is the account side of the API.
type Users interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Authenticate(accessToken string) (string, error)
}

// Vault is the owner-scoped secret store.
type Vault interface {
	Create(ctx context.Context, ownerID, label, accountName, secret string) (*models.SecretMetadata, error)
	List(ctx context.Context, ownerID string) ([]*models.SecretMetadata, error)
	Reveal(ctx context.Context, ownerID, id string) (string, error)
	Update(ctx context.Context, ownerID, id, label, accountName, secret string) (*models.SecretMetadata, error)
	Delete(ctx context.Context, ownerID, id string) error
	Check(ctx context.Context, secret string) (breach.Result, error)
}

// Sessions registers live alert streams.
type Sessions interface {
	Register(owner string, ch notify.Channel)
	Unregister(ch notify.Channel)
}

const shutdownGrace = 5 * time.Second

type GRPCServer struct {
	pb.UnimplementedVaultServiceServer
	address  string
	users    Users
	vault    Vault
	sessions Sessions
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, us Users, vs Vault, sessions Sessions) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		vault:    vs,
		sessions: sessions,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		pb.ServerCodec(),
		grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	pb.RegisterVaultServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(shutdownGrace):
			s.logger.Warn(ctx, "graceful stop timed out, closing open streams")
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
