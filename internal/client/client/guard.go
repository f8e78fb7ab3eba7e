package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/playerhub/internal/client/credstore"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/dmitrijs2005/playerhub/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SessionResetter is the part of the session state the guard may touch.
// ResetIf runs check serialized with every other session transition and,
// if check reports true, drops the current identity.
type SessionResetter interface {
	ResetIf(check func() bool) bool
}

// InvalidationHook is told about every invalidation the guard performs.
// source is the request path or gRPC method that returned the 401.
type InvalidationHook func(ctx context.Context, source string)

// Guard observes every inbound result. A 401-equivalent proves the
// credential the request carried is invalid, whichever feature made the
// call. If that credential is still the stored one the guard clears the
// store and the current identity; a credential replaced meanwhile (by a
// login) is left alone. The error always reaches the caller.
type Guard struct {
	store    credstore.Store
	identity SessionResetter
	log      logging.Logger
	hooks    []InvalidationHook
}

type GuardOption func(*Guard)

// WithInvalidationHook registers h to run after each invalidation.
func WithInvalidationHook(h InvalidationHook) GuardOption {
	return func(g *Guard) {
		if h != nil {
			g.hooks = append(g.hooks, h)
		}
	}
}

func NewGuard(store credstore.Store, identity SessionResetter, log logging.Logger, opts ...GuardOption) *Guard {
	g := &Guard{store: store, identity: identity, log: logging.OrNop(log)}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Invalidate clears local session state if rejected, the raw token the
// failed request carried, is still the stored credential. It reports
// whether anything was cleared. The verifying flag is left alone.
func (g *Guard) Invalidate(ctx context.Context, source, rejected string) bool {
	if IsAnonymous(ctx) {
		return false
	}

	check := func() bool {
		cur, err := g.store.Get(ctx)
		if err != nil {
			g.log.Warn(ctx, "credential store unreadable, keeping session", "source", source, "err", err)
			return false
		}
		if cur != rejected {
			g.log.Debug(ctx, "rejected credential already replaced, keeping session", "source", source)
			return false
		}
		if cur != "" {
			if err := g.store.Clear(ctx); err != nil {
				g.log.Error(ctx, "failed to clear rejected credential", "err", err)
			}
		}
		return true
	}

	var cleared bool
	if g.identity != nil {
		cleared = g.identity.ResetIf(check)
	} else {
		cleared = check()
	}
	if !cleared {
		return false
	}

	g.log.Info(ctx, "credential rejected by server, session cleared", "source", source)
	for _, h := range g.hooks {
		h(ctx, source)
	}
	return true
}

// AfterResponse implements ResponseStage.
func (g *Guard) AfterResponse(req *http.Request, resp *http.Response, err error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusUnauthorized {
		g.Invalidate(req.Context(), req.URL.Path, rawToken(req.Header.Get(common.AuthorizationHeaderName)))
	}
}

// UnaryClientInterceptor is the gRPC form of AfterResponse. It must run
// inside the authorizer's interceptor to see the attached credential.
func (g *Guard) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		if status.Code(err) == codes.Unauthenticated {
			var sent string
			if md, ok := metadata.FromOutgoingContext(ctx); ok {
				if v := md.Get(common.AuthorizationMetadataKey); len(v) > 0 {
					sent = v[0]
				}
			}
			g.Invalidate(ctx, method, rawToken(sent))
		}
		return err
	}
}

func rawToken(authorization string) string {
	return strings.TrimPrefix(authorization, common.BearerPrefix)
}
