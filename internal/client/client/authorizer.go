package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/playerhub/internal/client/credstore"
	"github.com/dmitrijs2005/playerhub/internal/client/token"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/dmitrijs2005/playerhub/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Authorizer decides, per outbound request, whether and what credential to
// attach. It never blocks a request.
type Authorizer struct {
	store     credstore.Store
	validator token.Validator
	log       logging.Logger
}

// NewAuthorizer builds an Authorizer. A nil validator means token.Structural.
func NewAuthorizer(store credstore.Store, validator token.Validator, log logging.Logger) *Authorizer {
	if validator == nil {
		validator = token.Structural
	}
	return &Authorizer{store: store, validator: validator, log: logging.OrNop(log)}
}

// Credential returns the token to attach, or "" to send the request
// unauthenticated. A malformed stored token is cleared from the store.
func (a *Authorizer) Credential(ctx context.Context) string {
	if IsAnonymous(ctx) {
		return ""
	}

	raw, err := a.store.Get(ctx)
	if err != nil {
		a.log.Warn(ctx, "credential store unreadable, sending unauthenticated", "err", err)
		return ""
	}
	if raw == "" {
		return ""
	}

	if !a.validator.IsWellFormed(raw) {
		a.log.Warn(ctx, "discarding malformed credential", "err", common.ErrMalformedToken)
		if err := a.store.Clear(ctx); err != nil {
			a.log.Error(ctx, "failed to clear malformed credential", "err", err)
		}
		return ""
	}
	return raw
}

// BeforeRequest implements RequestStage.
func (a *Authorizer) BeforeRequest(req *http.Request) {
	req.Header.Del(common.AuthorizationHeaderName)
	if tok := a.Credential(req.Context()); tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}
}

// UnaryClientInterceptor is the gRPC form of BeforeRequest.
func (a *Authorizer) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return invoker(withOutgoing(ctx, common.AuthorizationMetadataKey, bearer(a.Credential(ctx))), method, req, reply, cc, opts...)
	}
}

func bearer(tok string) string {
	if tok == "" {
		return ""
	}
	return common.BearerPrefix + tok
}

// withOutgoing replaces key in the outgoing metadata. An empty value
// removes the key.
func withOutgoing(ctx context.Context, key, value string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(key)
	if value != "" {
		md.Set(key, value)
	}
	return metadata.NewOutgoingContext(ctx, md)
}
