package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// IdentityServiceName is the gRPC service exposing the identity contract.
// Requests and responses are google.protobuf.Struct values carrying the
// same JSON shapes as the HTTP contract.
const IdentityServiceName = "playerhub.identity.v1.IdentityService"

// Full gRPC method names.
const (
	MethodLogin    = "/" + IdentityServiceName + "/Login"
	MethodRegister = "/" + IdentityServiceName + "/Register"
	MethodMe       = "/" + IdentityServiceName + "/Me"
	MethodLogout   = "/" + IdentityServiceName + "/Logout"
	MethodHealth   = "/" + IdentityServiceName + "/Health"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
}

// NewGRPCClient connects to endpointURL. Interceptors run in the given
// order around every unary call.
func NewGRPCClient(endpointURL string, interceptors ...grpc.UnaryClientInterceptor) (*GRPCClient, error) {
	return NewGRPCClientWithOptions(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(interceptors...),
	)
}

// NewGRPCClientWithOptions gives full control over dial options (tests use
// it to dial an in-memory listener).
func NewGRPCClientWithOptions(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCClient{endpointURL: endpointURL, conn: conn}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error) {
	var resp authResponse
	if err := c.invoke(ctx, MethodLogin, creds, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: resp.Token, Identity: resp.Identity}, nil
}

func (c *GRPCClient) Register(ctx context.Context, details models.RegistrationDetails) (AuthResult, error) {
	var resp authResponse
	if err := c.invoke(ctx, MethodRegister, details, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: resp.Token, Identity: resp.Identity}, nil
}

func (c *GRPCClient) Me(ctx context.Context) (models.Identity, error) {
	var resp meResponse
	if err := c.invoke(ctx, MethodMe, struct{}{}, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.Identity, nil
}

func (c *GRPCClient) Logout(ctx context.Context) error {
	return c.invoke(ctx, MethodLogout, struct{}{}, nil)
}

func (c *GRPCClient) Health(ctx context.Context) (bool, error) {
	var resp healthResponse
	if err := c.invoke(ctx, MethodHealth, struct{}{}, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (c *GRPCClient) invoke(ctx context.Context, method string, in, out any) error {
	req, err := ToStruct(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	reply := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, reply); err != nil {
		return mapError(method, err)
	}
	if out == nil {
		return nil
	}
	if err := FromStruct(reply, out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

// ToStruct converts any JSON-encodable value into a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// FromStruct decodes a protobuf Struct into out via its JSON form.
func FromStruct(s *structpb.Struct, out any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func mapError(method string, err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)

	var kind error
	switch st.Code() {
	case codes.Unauthenticated:
		kind = ErrUnauthorized
		if method == MethodLogin {
			kind = ErrInvalidCredentials
		}
	case codes.PermissionDenied:
		kind = ErrForbidden
	case codes.AlreadyExists:
		kind = ErrConflict
	case codes.InvalidArgument:
		kind = ErrValidation
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case codes.Unavailable:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	case codes.Canceled:
		return fmt.Errorf("rpc canceled: %w", context.Canceled)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}

	se := &ServiceError{Kind: kind, Message: st.Message()}
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		se.Fields = make(map[string]string, len(br.GetFieldViolations()))
		for _, fv := range br.GetFieldViolations() {
			se.Fields[fv.GetField()] = fv.GetDescription()
		}
	}
	return se
}
