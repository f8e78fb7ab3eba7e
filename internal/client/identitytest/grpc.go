package identitytest

import (
	"context"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// RegisterGRPC exposes the identity contract on gs under
// client.IdentityServiceName.
func (s *Server) RegisterGRPC(gs *grpc.Server) {
	gs.RegisterService(&grpc.ServiceDesc{
		ServiceName: client.IdentityServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Login", Handler: s.unary(func(ctx context.Context, in *structpb.Struct) (any, error) {
				var creds models.LoginCredentials
				if err := client.FromStruct(in, &creds); err != nil {
					return nil, Invalid(err)
				}
				return s.login(ctx, grpcMeta(ctx), creds)
			})},
			{MethodName: "Register", Handler: s.unary(func(ctx context.Context, in *structpb.Struct) (any, error) {
				var details models.RegistrationDetails
				if err := client.FromStruct(in, &details); err != nil {
					return nil, Invalid(err)
				}
				return s.register(ctx, grpcMeta(ctx), details)
			})},
			{MethodName: "Me", Handler: s.unary(func(ctx context.Context, _ *structpb.Struct) (any, error) {
				id, err := s.me(ctx, grpcMeta(ctx))
				if err != nil {
					return nil, err
				}
				return map[string]any{"identity": id}, nil
			})},
			{MethodName: "Logout", Handler: s.unary(func(ctx context.Context, _ *structpb.Struct) (any, error) {
				if err := s.logout(ctx, grpcMeta(ctx)); err != nil {
					return nil, err
				}
				return struct{}{}, nil
			})},
			{MethodName: "Health", Handler: s.unary(func(ctx context.Context, _ *structpb.Struct) (any, error) {
				ok, err := s.health(ctx, grpcMeta(ctx))
				if err != nil {
					return nil, err
				}
				return map[string]bool{"ok": ok}, nil
			})},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "playerhub/identity/v1/identity.proto",
	}, s)
}

type structHandler func(ctx context.Context, in *structpb.Struct) (any, error)

func (s *Server) unary(h structHandler) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
		in := &structpb.Struct{}
		if err := dec(in); err != nil {
			return nil, grpcStatus(Invalid(err))
		}
		out, err := h(ctx, in)
		if err != nil {
			return nil, grpcStatus(err)
		}
		reply, err := client.ToStruct(out)
		if err != nil {
			return nil, grpcStatus(err)
		}
		return reply, nil
	}
}

func grpcMeta(ctx context.Context) callMeta {
	md, _ := metadata.FromIncomingContext(ctx)
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return callMeta{
		authorization: first(common.AuthorizationMetadataKey),
		requestID:     first(common.RequestIDMetadataKey),
	}
}
