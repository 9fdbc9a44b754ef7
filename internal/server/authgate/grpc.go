package authgate

import (
	"context"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryInterceptor guards every unary method except the full method names
// listed in public.
func (g *Gate) UnaryInterceptor(public ...string) grpc.UnaryServerInterceptor {
	open := make(map[string]struct{}, len(public))
	for _, m := range public {
		open[m] = struct{}{}
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := open[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(common.AuthorizationMetadataKey); len(values) > 0 {
				header = values[0]
			}
		}

		id, err := g.Authorize(ctx, header)
		if err != nil {
			g.reject(ctx, info.FullMethod, err)
			if common.IsSecretFailure(err) {
				return nil, status.Error(codes.Unavailable, "service unavailable")
			}
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}

		return handler(WithIdentity(ctx, id), req)
	}
}
