package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/dmitrijs2005/playerhub/internal/client/credstore"
	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/logging"
)

/*************
 * Fake identity client
 *************/

type fakeClient struct {
	mu sync.Mutex

	// inputs captured
	lastLoginCtx   context.Context
	lastLogin      models.LoginCredentials
	lastRegister   models.RegistrationDetails
	meCalls        int
	loginCalls     int
	logoutCalls    int
	trace          *[]string

	// outputs preset
	meFn        func(ctx context.Context) (models.Identity, error)
	loginRes    client.AuthResult
	loginErr    error
	loginGate   chan struct{} // if set, Login waits for it to close
	registerRes client.AuthResult
	registerErr error
	logoutErr   error
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Login(ctx context.Context, creds models.LoginCredentials) (client.AuthResult, error) {
	f.mu.Lock()
	gate := f.loginGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	f.lastLoginCtx = ctx
	f.lastLogin = creds
	return f.loginRes, f.loginErr
}

func (f *fakeClient) Register(ctx context.Context, details models.RegistrationDetails) (client.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLoginCtx = ctx
	f.lastRegister = details
	return f.registerRes, f.registerErr
}

func (f *fakeClient) Me(ctx context.Context) (models.Identity, error) {
	f.mu.Lock()
	f.meCalls++
	fn := f.meFn
	f.mu.Unlock()
	if fn == nil {
		return models.Identity{}, errors.New("no identity configured")
	}
	return fn(ctx)
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	if f.trace != nil {
		*f.trace = append(*f.trace, "logout")
	}
	return f.logoutErr
}

func (f *fakeClient) Health(context.Context) (bool, error) { return true, nil }

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

func returns(id models.Identity, err error) func(context.Context) (models.Identity, error) {
	return func(context.Context) (models.Identity, error) { return id, err }
}

// blocking returns a Me implementation that waits for release and then
// answers with id, ignoring cancellation like a hung server would.
func blocking(release <-chan struct{}, id models.Identity) func(context.Context) (models.Identity, error) {
	return func(context.Context) (models.Identity, error) {
		<-release
		return id, nil
	}
}

type fakeCleaner struct {
	err   error
	calls int
	trace *[]string
}

func (c *fakeCleaner) Cleanup(context.Context) error {
	c.calls++
	if c.trace != nil {
		*c.trace = append(*c.trace, "cleanup")
	}
	return c.err
}

type failingStore struct {
	credstore.Store
	setErr   error
	clearErr error
}

func (s *failingStore) Set(ctx context.Context, tok string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Store.Set(ctx, tok)
}

func (s *failingStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	return s.Store.Clear(ctx)
}

/*************
 * Helpers
 *************/

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) contains(sub string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Contains(s.b.String(), sub)
}

func debugLogger() (logging.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return logging.NewTextLogger(buf, slog.LevelDebug), buf
}

// manualTimer hands out one channel for every deadline armed; fire
// releases all of them.
type manualTimer struct {
	ch    chan time.Time
	armed chan time.Duration
}

func newManualTimer() *manualTimer {
	return &manualTimer{ch: make(chan time.Time), armed: make(chan time.Duration, 8)}
}

func (m *manualTimer) after(d time.Duration) <-chan time.Time {
	m.armed <- d
	return m.ch
}

func (m *manualTimer) fire() { close(m.ch) }

const (
	tokenA = "aaa.bbb.ccc"
	tokenB = "ddd.eee.fff"
)

var bob = models.Identity{
	ID:        "u-bob",
	Username:  " bob ",
	Kind:      "GROUP",
	Followers: []string{"u2", "u1", "u2"},
	Following: nil,
	CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)),
}
