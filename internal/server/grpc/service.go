package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "studentvault.v1.AdminAuth"

// Full method names as seen by interceptors.
const (
	MethodSignIn = "/" + ServiceName + "/SignIn"
	MethodWhoAmI = "/" + ServiceName + "/WhoAmI"
)

// AdminAuthServer is the server API of the AdminAuth service. Requests and
// responses are well-known protobuf types, so no generated code is needed.
type AdminAuthServer interface {
	// SignIn takes {"email", "password"} and returns {"token"}.
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// WhoAmI returns {"email", "expires_at"} for the calling token.
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var AdminAuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminAuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignIn", Handler: signInHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func signInHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminAuthServer).SignIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSignIn}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminAuthServer).SignIn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminAuthServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWhoAmI}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminAuthServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// AdminAuthClient calls the AdminAuth service.
type AdminAuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminAuthClient(cc grpc.ClientConnInterface) *AdminAuthClient {
	return &AdminAuthClient{cc: cc}
}

func (c *AdminAuthClient) SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSignIn, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminAuthClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodWhoAmI, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
