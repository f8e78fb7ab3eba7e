package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/playerhub/internal/client/token"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func newRequest(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://identity.test/me", nil)
	require.NoError(t, err)
	return req
}

func TestAuthorizer_NoToken_SendsUnauthenticated(t *testing.T) {
	st := &fakeStore{}
	a := NewAuthorizer(st, nil, nil)

	req := newRequest(t, context.Background())
	a.BeforeRequest(req)

	assert.Empty(t, req.Header.Get(common.AuthorizationHeaderName))
	assert.Equal(t, 0, st.clears)
}

func TestAuthorizer_WellFormedToken_AttachesBearer(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	a := NewAuthorizer(st, nil, nil)

	req := newRequest(t, context.Background())
	a.BeforeRequest(req)

	assert.Equal(t, "Bearer "+wellFormed, req.Header.Get(common.AuthorizationHeaderName))
	assert.Equal(t, wellFormed, st.current())
}

func TestAuthorizer_MalformedToken_ClearsStoreAndSendsNothing(t *testing.T) {
	for _, raw := range []string{"garbage", "a.b", "a..c", ".b.c", "a.b.c.d"} {
		t.Run(raw, func(t *testing.T) {
			st := &fakeStore{token: raw}
			a := NewAuthorizer(st, nil, nil)

			req := newRequest(t, context.Background())
			a.BeforeRequest(req)

			assert.Empty(t, req.Header.Get(common.AuthorizationHeaderName))
			assert.Equal(t, 1, st.clears)
			assert.Empty(t, st.current())
		})
	}
}

func TestAuthorizer_ClearFailureStillSendsUnauthenticated(t *testing.T) {
	st := &fakeStore{token: "garbage", clearErr: errors.New("disk full")}
	a := NewAuthorizer(st, nil, nil)

	req := newRequest(t, context.Background())
	a.BeforeRequest(req)

	assert.Empty(t, req.Header.Get(common.AuthorizationHeaderName))
}

func TestAuthorizer_StoreErrorTreatedAsAbsent(t *testing.T) {
	st := &fakeStore{token: wellFormed, getErr: errors.New("locked")}
	a := NewAuthorizer(st, nil, nil)

	assert.Empty(t, a.Credential(context.Background()))
	assert.Equal(t, 0, st.clears)
}

func TestAuthorizer_AnonymousContextSkipsStore(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	a := NewAuthorizer(st, nil, nil)

	req := newRequest(t, WithoutCredential(context.Background()))
	req.Header.Set(common.AuthorizationHeaderName, "Bearer stale")
	a.BeforeRequest(req)

	assert.Empty(t, req.Header.Get(common.AuthorizationHeaderName))
	assert.Equal(t, 0, st.gets)
}

func TestAuthorizer_CustomValidator(t *testing.T) {
	st := &fakeStore{token: "opaque"}
	a := NewAuthorizer(st, token.ValidatorFunc(func(string) bool { return true }), nil)

	assert.Equal(t, "opaque", a.Credential(context.Background()))
}

func TestAuthorizer_UnaryInterceptor(t *testing.T) {
	st := &fakeStore{token: wellFormed}
	a := NewAuthorizer(st, nil, nil)

	var got []string
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		got = md.Get(common.AuthorizationMetadataKey)
		return nil
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AuthorizationMetadataKey, "Bearer old")
	require.NoError(t, a.UnaryClientInterceptor()(ctx, MethodMe, nil, nil, nil, invoker))
	assert.Equal(t, []string{"Bearer " + wellFormed}, got)

	st.token = ""
	require.NoError(t, a.UnaryClientInterceptor()(ctx, MethodMe, nil, nil, nil, invoker))
	assert.Empty(t, got)
}
