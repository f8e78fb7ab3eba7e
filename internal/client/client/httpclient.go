package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
)

// HTTPClient implements Client against the JSON/HTTP identity contract.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

type HTTPOption func(*httpOptions)

type httpOptions struct {
	timeout   time.Duration
	base      http.RoundTripper
	requests  []RequestStage
	responses []ResponseStage
}

// WithHTTPTimeout bounds every call; zero means no client-side limit.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) { o.timeout = d }
}

// WithBaseTransport replaces http.DefaultTransport under the pipeline.
func WithBaseTransport(rt http.RoundTripper) HTTPOption {
	return func(o *httpOptions) { o.base = rt }
}

// WithRequestStages appends stages run, in order, before each request.
func WithRequestStages(stages ...RequestStage) HTTPOption {
	return func(o *httpOptions) { o.requests = append(o.requests, stages...) }
}

// WithResponseStages appends stages run, in order, after each result.
func WithResponseStages(stages ...ResponseStage) HTTPOption {
	return func(o *httpOptions) { o.responses = append(o.responses, stages...) }
}

func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	var o httpOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   o.timeout,
			Transport: NewPipeline(o.base, o.requests, o.responses),
		},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, endpointLogin, creds, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: resp.Token, Identity: resp.Identity}, nil
}

func (c *HTTPClient) Register(ctx context.Context, details models.RegistrationDetails) (AuthResult, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, endpointRegister, details, &resp); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: resp.Token, Identity: resp.Identity}, nil
}

func (c *HTTPClient) Me(ctx context.Context) (models.Identity, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, endpointMe, nil, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.Identity, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, endpointLogout, struct{}{}, nil)
}

func (c *HTTPClient) Health(ctx context.Context) (bool, error) {
	var resp healthResponse
	if err := c.do(ctx, http.MethodGet, endpointHealth, nil, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapHTTPError(endpoint, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func mapHTTPError(endpoint string, resp *http.Response) error {
	var er errorResponse
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(b) > 0 {
		_ = json.Unmarshal(b, &er)
	}

	kind := kindForStatus(endpoint, resp.StatusCode)
	if kind == nil {
		if er.Message == "" {
			er.Message = strings.TrimSpace(string(b))
		}
		return fmt.Errorf("unexpected status %s from %s: %s", resp.Status, endpoint, er.Message)
	}
	return &ServiceError{Kind: kind, Message: er.Message, Fields: er.Errors}
}

func kindForStatus(endpoint string, code int) error {
	switch {
	case code == http.StatusUnauthorized && endpoint == endpointLogin:
		return ErrInvalidCredentials
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return ErrValidation
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return ErrTimeout
	case code >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}
