package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/dmitrijs2005/playerhub/internal/client/credstore"
	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/client/token"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/dmitrijs2005/playerhub/internal/logging"
)

// Cleaner tears down ephemeral side activity (presence, open channels)
// before the session ends. Failures are logged and otherwise ignored.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Manager is the session core: it owns State and the Bootstrapper and is
// the only writer of the credential store besides the transport guards.
//
// State subscribers are notified synchronously while Manager holds its
// internal lock and must not call back into Manager from the callback.
type Manager struct {
	client    client.Client
	store     credstore.Store
	validator token.Validator
	state     *State
	boot      *Bootstrapper
	cleaner   Cleaner
	log       logging.Logger
	metrics   *Metrics
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = logging.OrNop(l) }
}

func WithMetrics(mt *Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func WithCleaner(c Cleaner) Option {
	return func(m *Manager) { m.cleaner = c }
}

func WithValidator(v token.Validator) Option {
	return func(m *Manager) {
		if v != nil {
			m.validator = v
		}
	}
}

// WithVerifyTimeout sets the bootstrap deadline. Non-positive values keep
// DefaultVerifyTimeout.
func WithVerifyTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.boot.timeout = d
		}
	}
}

// WithClearTokenOnVerifyTimeout makes a bootstrap timeout discard the
// stored credential. By default it is kept for the next start.
func WithClearTokenOnVerifyTimeout(clear bool) Option {
	return func(m *Manager) { m.boot.clearOnTimeout = clear }
}

func withClock(after func(time.Duration) <-chan time.Time) Option {
	return func(m *Manager) { m.boot.after = after }
}

func NewManager(c client.Client, store credstore.Store, state *State, opts ...Option) *Manager {
	m := &Manager{
		client:    c,
		store:     store,
		validator: token.Structural,
		state:     state,
		boot:      newBootstrapper(store, c, state),
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(m)
	}
	m.boot.validator = m.validator
	m.boot.log = m.log.With("component", "bootstrap")
	m.boot.metrics = m.metrics
	return m
}

func (m *Manager) State() *State { return m.state }

// Phase reports the bootstrap state machine's phase.
func (m *Manager) Phase() Phase { return m.boot.Phase() }

// Bootstrap verifies the stored credential, if any. See Bootstrapper.Run.
func (m *Manager) Bootstrap(ctx context.Context) (Outcome, error) {
	return m.boot.Run(logging.ContextWith(ctx, "op", "bootstrap"))
}

// Login signs in with email and password. On success the new token
// replaces the stored one and the returned identity becomes current. On
// failure the store and the identity are left as they were.
func (m *Manager) Login(ctx context.Context, creds models.LoginCredentials) (models.Identity, error) {
	creds = creds.Normalize()
	if err := creds.Validate(); err != nil {
		err = client.ValidationFailure(err)
		m.metrics.authenticated("login", err)
		return models.Identity{}, err
	}
	return m.authenticate(ctx, "login", func(ctx context.Context) (client.AuthResult, error) {
		return m.client.Login(ctx, creds)
	})
}

// Register creates an account and signs it in, like Login.
func (m *Manager) Register(ctx context.Context, details models.RegistrationDetails) (models.Identity, error) {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		err = client.ValidationFailure(err)
		m.metrics.authenticated("register", err)
		return models.Identity{}, err
	}
	return m.authenticate(ctx, "register", func(ctx context.Context) (client.AuthResult, error) {
		return m.client.Register(ctx, details)
	})
}

func (m *Manager) authenticate(ctx context.Context, op string, call func(context.Context) (client.AuthResult, error)) (models.Identity, error) {
	ctx = logging.ContextWith(ctx, "op", op)
	m.boot.beginAuth()
	defer m.boot.endAuth()

	// The held credential is never sent along with new credentials.
	res, err := call(client.WithoutCredential(ctx))
	if err == nil && !m.validator.IsWellFormed(res.Token) {
		err = fmt.Errorf("%s: service returned %w", op, common.ErrMalformedToken)
	}
	if err != nil {
		m.metrics.authenticated(op, err)
		return models.Identity{}, err
	}

	id := res.Identity.Normalize()
	m.boot.supersede(func() {
		if err = m.store.Set(ctx, res.Token); err != nil {
			return
		}
		m.state.settleVerifying(&id, m.boot.pending > 1)
	})
	if err != nil {
		err = fmt.Errorf("failed to store credential: %w", err)
		m.metrics.authenticated(op, err)
		return models.Identity{}, err
	}

	m.metrics.authenticated(op, nil)
	m.log.Info(ctx, "signed in", "user_id", id.ID, "account_kind", id.Kind)
	return id.Clone(), nil
}

// Logout ends the session. Cleanup and the server call are best effort;
// the local credential and identity are cleared regardless. The only
// error returned is a failure to clear the local store.
func (m *Manager) Logout(ctx context.Context) error {
	ctx = logging.ContextWith(ctx, "op", "logout")
	m.boot.supersede(nil)

	if m.cleaner != nil {
		if err := m.cleaner.Cleanup(ctx); err != nil {
			m.log.Warn(ctx, "session cleanup failed", "err", err)
		}
	}
	if err := m.client.Logout(ctx); err != nil {
		m.log.Warn(ctx, "server logout failed, clearing locally", "err", err)
	}

	var clearErr error
	m.boot.supersede(func() {
		clearErr = m.store.Clear(context.WithoutCancel(ctx))
		m.state.settleVerifying(nil, m.boot.pending > 0)
	})
	m.metrics.invalidated(ReasonLogout)

	if clearErr != nil {
		m.log.Error(ctx, "failed to clear credential on logout", "err", clearErr)
		return fmt.Errorf("failed to clear credential: %w", clearErr)
	}
	m.log.Info(ctx, "signed out")
	return nil
}

// RefreshIdentity re-reads the current identity. On failure the existing
// state is left untouched; authorization failures are handled by the
// transport guard.
func (m *Manager) RefreshIdentity(ctx context.Context) (models.Identity, error) {
	ctx = logging.ContextWith(ctx, "op", "refresh")
	gen := m.boot.generation()

	id, err := m.client.Me(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	n := id.Normalize()
	if !m.boot.applyIfCurrent(gen, func() { m.state.setIdentity(n) }) {
		m.log.Debug(ctx, "session changed during refresh, identity not applied")
	}
	return n.Clone(), nil
}

// Health probes the identity service. It is not on the session path.
func (m *Manager) Health(ctx context.Context) (bool, error) {
	return m.client.Health(ctx)
}
