package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// sentWith returns a /me request as the authorizer would have sent it
// with tok attached.
func sentWith(t *testing.T, ctx context.Context, tok string) *http.Request {
	t.Helper()
	req := newRequest(t, ctx)
	req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	return req
}

func outgoingWith(tok string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), common.AuthorizationMetadataKey, common.BearerPrefix+tok)
}

func TestGuard_401ClearsStoreAndIdentity(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	id := &fakeIdentity{}

	var sources []string
	g := NewGuard(st, id, nil, WithInvalidationHook(func(_ context.Context, source string) {
		sources = append(sources, source)
	}))

	req := sentWith(t, context.Background(), wellFormed)
	g.AfterResponse(req, &http.Response{StatusCode: http.StatusUnauthorized}, nil)

	assert.Empty(t, st.current())
	assert.Equal(t, 1, id.count())
	assert.Equal(t, []string{"/me"}, sources)
}

func TestGuard_401ForReplacedCredentialKeepsSession(t *testing.T) {
	st := &fakeStore{token: "new.new.new"}
	id := &fakeIdentity{}
	hooks := 0
	g := NewGuard(st, id, nil, WithInvalidationHook(func(context.Context, string) { hooks++ }))

	req := sentWith(t, context.Background(), "old.old.old")
	g.AfterResponse(req, &http.Response{StatusCode: http.StatusUnauthorized}, nil)

	assert.Equal(t, "new.new.new", st.current())
	assert.Equal(t, 0, id.count())
	assert.Equal(t, 0, hooks)
	assert.Equal(t, 0, st.clears)
}

// A request leaves with the old token, a login stores a new one while the
// server is still answering, then the old token is rejected.
func TestGuard_Stale401DuringLoginKeepsNewCredential(t *testing.T) {
	arrived := make(chan struct{})
	answer := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-answer
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	st := &fakeStore{token: "old.old.old"}
	id := &fakeIdentity{}
	c := NewHTTPClient(srv.URL,
		WithRequestStages(NewAuthorizer(st, nil, nil)),
		WithResponseStages(NewGuard(st, id, nil)),
	)
	defer c.Close()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Me(context.Background())
		errc <- err
	}()

	<-arrived
	require.NoError(t, st.Set(context.Background(), "new.new.new"))
	close(answer)

	require.ErrorIs(t, <-errc, ErrUnauthorized)
	assert.Equal(t, "new.new.new", st.current())
	assert.Equal(t, 0, id.count())
}

func TestGuard_IgnoresOtherResults(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)
	req := sentWith(t, context.Background(), wellFormed)

	g.AfterResponse(req, &http.Response{StatusCode: http.StatusOK}, nil)
	g.AfterResponse(req, &http.Response{StatusCode: http.StatusForbidden}, nil)
	g.AfterResponse(req, &http.Response{StatusCode: http.StatusInternalServerError}, nil)
	g.AfterResponse(req, nil, errors.New("connection reset"))

	assert.Equal(t, wellFormed, st.current())
	assert.Equal(t, 0, id.count())
}

func TestGuard_AnonymousRequestIgnored(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)

	req := newRequest(t, WithoutCredential(context.Background()))
	g.AfterResponse(req, &http.Response{StatusCode: http.StatusUnauthorized}, nil)

	assert.Equal(t, wellFormed, st.current())
	assert.Equal(t, 0, id.count())
}

func TestGuard_UnauthenticatedRequestWithStoredTokenKeepsIt(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)

	g.AfterResponse(newRequest(t, context.Background()), &http.Response{StatusCode: http.StatusUnauthorized}, nil)

	assert.Equal(t, wellFormed, st.current())
	assert.Equal(t, 0, id.count())
}

func TestGuard_ClearFailureStillResetsIdentity(t *testing.T) {
	st := &fakeStore{token: wellFormed, clearErr: errors.New("read-only")}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)

	assert.True(t, g.Invalidate(context.Background(), "/me", wellFormed))
	assert.Equal(t, 1, id.count())
}

func TestGuard_UnreadableStoreKeepsSession(t *testing.T) {
	st := &fakeStore{token: wellFormed, getErr: errors.New("locked")}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)

	assert.False(t, g.Invalidate(context.Background(), "/me", wellFormed))
	assert.Equal(t, 0, id.count())
	assert.Equal(t, 0, st.clears)
}

func TestGuard_UnaryInterceptor_PropagatesError(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)

	want := status.Error(codes.Unauthenticated, "expired")
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return want
	}

	err := g.UnaryClientInterceptor()(outgoingWith(wellFormed), MethodMe, nil, nil, nil, invoker)
	require.Equal(t, want, err)
	assert.Empty(t, st.current())
	assert.Equal(t, 1, id.count())
}

func TestGuard_UnaryInterceptor_ReplacedCredentialKept(t *testing.T) {
	st := &fakeStore{token: "new.new.new"}
	id := &fakeIdentity{}
	g := NewGuard(st, id, nil)

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "expired")
	}
	require.Error(t, g.UnaryClientInterceptor()(outgoingWith("old.old.old"), MethodMe, nil, nil, nil, invoker))
	assert.Equal(t, "new.new.new", st.current())
	assert.Equal(t, 0, id.count())
}

func TestGuard_UnaryInterceptor_IgnoresOtherCodes(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	g := NewGuard(st, nil, nil)

	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.PermissionDenied, "nope")
	}
	require.Error(t, g.UnaryClientInterceptor()(outgoingWith(wellFormed), MethodMe, nil, nil, nil, invoker))
	assert.Equal(t, wellFormed, st.current())
}
