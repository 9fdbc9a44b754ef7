package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/server/authgate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	email := fields["email"].GetStringValue()
	password := fields["password"].GetStringValue()

	token, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrValidation):
			return nil, status.Error(codes.InvalidArgument, "email and password are required")
		case errors.Is(err, common.ErrInvalidCredentials):
			return nil, status.Error(codes.Unauthenticated, "incorrect credentials")
		case common.IsSecretFailure(err):
			s.logger.Error(ctx, "sign in failed", "error", err)
			return nil, status.Error(codes.Unavailable, "service unavailable")
		default:
			s.logger.Error(ctx, "sign in failed", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"token": structpb.NewStringValue(token),
	}}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, ok := authgate.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"email":      structpb.NewStringValue(id.Email),
		"expires_at": structpb.NewStringValue(id.ExpiresAt.UTC().Format(time.RFC3339)),
	}}, nil
}
