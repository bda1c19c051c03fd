// Package client talks to the vaultwatch gRPC API on behalf of vaultctl.
// It keeps the session tokens and refreshes an expired access token once,
// transparently, before giving up on a unary call.
package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      pb.VaultServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()
	if access == "" {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) || refresh == "" {
		return err
	}

	resp, rerr := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refresh})
	if rerr != nil {
		return rerr
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)

	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	if access, _ := s.tokens(); access != "" {
		ctx = withAccessToken(ctx, access)
	}
	return streamer(ctx, desc, cc, method, opts...)
}

// NewGRPCClient prepares a lazy connection to endpointURL. Extra dial
// options are appended after the defaults.
func NewGRPCClient(endpointURL string, timeout time.Duration, extra ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
		pb.WithCodec(),
	}, extra...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewVaultServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) LoggedIn() bool {
	access, _ := s.tokens()
	return access != ""
}

func (s *GRPCClient) Logout() {
	s.setTokens("", "")
}

func (s *GRPCClient) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) requireLogin() error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, username, password string) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Register(ctx, &pb.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return "", mapError(err)
	}
	return resp.UserID, nil
}

func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, &pb.LoginRequest{Username: username, Password: password})
	if err != nil {
		return mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	if _, err := s.client.Ping(ctx, &pb.PingRequest{}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) CreateSecret(ctx context.Context, label, accountName, password string) (*pb.Secret, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.CreateSecret(ctx, &pb.CreateSecretRequest{Label: label, AccountName: accountName, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Secret, nil
}

func (s *GRPCClient) ListSecrets(ctx context.Context) ([]*pb.Secret, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.ListSecrets(ctx, &pb.ListSecretsRequest{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Secrets, nil
}

func (s *GRPCClient) RevealSecret(ctx context.Context, id string) (string, error) {
	if err := s.requireLogin(); err != nil {
		return "", err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.RevealSecret(ctx, &pb.RevealSecretRequest{ID: id})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Password, nil
}

func (s *GRPCClient) UpdateSecret(ctx context.Context, id, label, accountName, password string) (*pb.Secret, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.UpdateSecret(ctx, &pb.UpdateSecretRequest{ID: id, Label: label, AccountName: accountName, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Secret, nil
}

func (s *GRPCClient) DeleteSecret(ctx context.Context, id string) error {
	if err := s.requireLogin(); err != nil {
		return err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()

	if _, err := s.client.DeleteSecret(ctx, &pb.DeleteSecretRequest{ID: id}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) CheckSecret(ctx context.Context, password string) (*pb.CheckSecretResponse, error) {
	if err := s.requireLogin(); err != nil {
		return nil, err
	}
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.CheckSecret(ctx, &pb.CheckSecretRequest{Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

// WatchAlerts calls fn for each alert until ctx is cancelled or the server
// ends the stream. It is not bounded by the request timeout.
func (s *GRPCClient) WatchAlerts(ctx context.Context, fn func(*pb.AlertEvent)) error {
	if err := s.requireLogin(); err != nil {
		return err
	}

	stream, err := s.client.WatchAlerts(ctx, &pb.WatchAlertsRequest{})
	if err != nil {
		return mapError(err)
	}
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return mapError(err)
		}
		fn(ev)
	}
}
