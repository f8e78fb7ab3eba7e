package client

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestStage runs on every outbound HTTP request before it is sent.
// Stages receive a private clone of the request and may edit its headers.
type RequestStage interface {
	BeforeRequest(req *http.Request)
}

// ResponseStage runs on every result, successful or not. It must not
// consume the response body.
type ResponseStage interface {
	AfterResponse(req *http.Request, resp *http.Response, err error)
}

// RequestStageFunc adapts a function into a RequestStage.
type RequestStageFunc func(req *http.Request)

func (f RequestStageFunc) BeforeRequest(req *http.Request) { f(req) }

// ResponseStageFunc adapts a function into a ResponseStage.
type ResponseStageFunc func(req *http.Request, resp *http.Response, err error)

func (f ResponseStageFunc) AfterResponse(req *http.Request, resp *http.Response, err error) {
	f(req, resp, err)
}

// Pipeline is an http.RoundTripper that runs request stages in order,
// sends the request through next, then runs response stages in order.
type Pipeline struct {
	next      http.RoundTripper
	requests  []RequestStage
	responses []ResponseStage
}

// NewPipeline composes the stages around next (http.DefaultTransport if nil).
func NewPipeline(next http.RoundTripper, requests []RequestStage, responses []ResponseStage) *Pipeline {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Pipeline{next: next, requests: requests, responses: responses}
}

func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for _, s := range p.requests {
		s.BeforeRequest(out)
	}

	resp, err := p.next.RoundTrip(out)

	for _, s := range p.responses {
		s.AfterResponse(out, resp, err)
	}
	return resp, err
}

// RequestIDStage sets X-Request-ID to a fresh UUID unless the caller set one.
func RequestIDStage() RequestStage {
	return RequestStageFunc(func(req *http.Request) {
		if req.Header.Get(common.RequestIDHeaderName) == "" {
			req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
		}
	})
}

// RequestIDUnaryInterceptor is the gRPC form of RequestIDStage.
func RequestIDUnaryInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if md, _ := metadata.FromOutgoingContext(ctx); len(md.Get(common.RequestIDMetadataKey)) == 0 {
			ctx = withOutgoing(ctx, common.RequestIDMetadataKey, uuid.NewString())
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// TimeoutUnaryInterceptor bounds each call to d unless the caller's
// context already ends sooner. Non-positive d disables it.
func TimeoutUnaryInterceptor(d time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if d <= 0 {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
