package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request")

	user, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &pb.RegisterResponse{UserID: user.ID, Username: user.UserName}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.TokenResponse, error) {
	tokens, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.TokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "refresh token expired")
		}
		return nil, s.toStatus(ctx, err)
	}
	return &pb.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) CreateSecret(ctx context.Context, req *pb.CreateSecretRequest) (*pb.SecretResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := s.vault.Create(ctx, userID, req.Label, req.AccountName, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.SecretResponse{Secret: toWireSecret(meta)}, nil
}

func (s *GRPCServer) ListSecrets(ctx context.Context, req *pb.ListSecretsRequest) (*pb.ListSecretsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.vault.List(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out := make([]*pb.Secret, 0, len(items))
	for _, m := range items {
		out = append(out, toWireSecret(m))
	}
	return &pb.ListSecretsResponse{Secrets: out}, nil
}

func (s *GRPCServer) RevealSecret(ctx context.Context, req *pb.RevealSecretRequest) (*pb.RevealSecretResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.vault.Reveal(ctx, userID, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.RevealSecretResponse{Password: plaintext}, nil
}

func (s *GRPCServer) UpdateSecret(ctx context.Context, req *pb.UpdateSecretRequest) (*pb.SecretResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	meta, err := s.vault.Update(ctx, userID, req.ID, req.Label, req.AccountName, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.SecretResponse{Secret: toWireSecret(meta)}, nil
}

func (s *GRPCServer) DeleteSecret(ctx context.Context, req *pb.DeleteSecretRequest) (*pb.DeleteSecretResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.vault.Delete(ctx, userID, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.DeleteSecretResponse{}, nil
}

func (s *GRPCServer) CheckSecret(ctx context.Context, req *pb.CheckSecretRequest) (*pb.CheckSecretResponse, error) {
	if _, err := userIDFromContext(ctx); err != nil {
		return nil, err
	}

	res, err := s.vault.Check(ctx, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &pb.CheckSecretResponse{Status: res.Status.String(), Count: res.Count}, nil
}

// toStatus maps service errors to gRPC codes with flat messages.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrCorruptRecord), errors.Is(err, common.ErrAuthenticationFailed):
		return status.Error(codes.DataLoss, "stored secret cannot be decrypted")
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func toWireSecret(m *models.SecretMetadata) *pb.Secret {
	return &pb.Secret{
		ID:            m.ID,
		Label:         m.Label,
		AccountName:   m.AccountName,
		ExposureCount: m.ExposureCount,
		ExposureState: string(m.ExposureState),
		LastChecked:   m.LastChecked,
		CreatedAt:     m.CreatedAt,
	}
}
