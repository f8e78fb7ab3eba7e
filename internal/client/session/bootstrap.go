package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/dmitrijs2005/playerhub/internal/client/credstore"
	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/client/token"
	"github.com/dmitrijs2005/playerhub/internal/logging"
)

// DefaultVerifyTimeout bounds a bootstrap verification round-trip.
const DefaultVerifyTimeout = 15 * time.Second

var ErrAlreadyVerifying = errors.New("session verification already in progress")

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseVerifying
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseVerifying:
		return "verifying"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Outcome says how a bootstrap attempt settled.
type Outcome string

const (
	OutcomeNoCredential Outcome = "no_credential"
	OutcomeVerified     Outcome = "verified"
	OutcomeRejected     Outcome = "rejected"
	OutcomeFailed       Outcome = "failed"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeCanceled     Outcome = "canceled"
	// OutcomeSuperseded means a login or logout took over the session
	// while the attempt was in flight.
	OutcomeSuperseded Outcome = "superseded"
)

// Verifier resolves the identity behind the attached credential.
type Verifier interface {
	Me(ctx context.Context) (models.Identity, error)
}

type attempt struct {
	id      uint64
	done    chan struct{}
	outcome Outcome
}

// Bootstrapper runs the startup verification state machine:
// Idle -> Verifying -> Settled, with a direct Idle -> Settled edge when no
// usable credential is stored. Settled may be re-entered by a later Run.
type Bootstrapper struct {
	store     credstore.Store
	validator token.Validator
	verifier  Verifier
	state     *State
	log       logging.Logger
	metrics   *Metrics

	timeout        time.Duration
	clearOnTimeout bool
	after          func(time.Duration) <-chan time.Time

	// guarded by state.session
	phase   Phase
	current *attempt
	// pending counts login/register calls in flight; they hold verifying.
	pending int
}

func newBootstrapper(store credstore.Store, verifier Verifier, state *State) *Bootstrapper {
	return &Bootstrapper{
		store:     store,
		validator: token.Structural,
		verifier:  verifier,
		state:     state,
		log:       logging.Nop(),
		timeout:   DefaultVerifyTimeout,
		after:     time.After,
	}
}

func (b *Bootstrapper) Phase() Phase {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	return b.phase
}

// Run performs one verification attempt and blocks until it settles. It
// returns ErrAlreadyVerifying if another attempt is in flight. The
// returned error is non-nil only for re-entry or when ctx ends first.
func (b *Bootstrapper) Run(ctx context.Context) (Outcome, error) {
	a, err := b.begin()
	if err != nil {
		return "", err
	}
	log := b.log.With("attempt", a.id)
	log.Debug(ctx, "session bootstrap started")

	tok, err := b.store.Get(ctx)
	if err != nil {
		log.Warn(ctx, "credential store unreadable, treating as signed out", "err", err)
		tok = ""
	}
	if tok != "" && !b.validator.IsWellFormed(tok) {
		log.Warn(ctx, "discarding malformed stored credential")
		if err := b.store.Clear(ctx); err != nil {
			log.Error(ctx, "failed to clear malformed credential", "err", err)
		}
		tok = ""
	}
	if tok == "" {
		b.settle(ctx, a, nil, OutcomeNoCredential)
		<-a.done
		return a.outcome, nil
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		id, err := b.verifier.Me(callCtx)
		b.resolve(ctx, a, id, err)
	}()

	select {
	case <-a.done:
	case <-b.after(b.timeout):
		b.expire(ctx, a)
	case <-ctx.Done():
		b.settle(ctx, a, nil, OutcomeCanceled)
	}
	<-a.done

	if a.outcome == OutcomeCanceled {
		return a.outcome, ctx.Err()
	}
	log.Info(ctx, "session bootstrap settled", "outcome", a.outcome)
	return a.outcome, nil
}

func (b *Bootstrapper) begin() (*attempt, error) {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	if b.phase == PhaseVerifying {
		return nil, ErrAlreadyVerifying
	}
	b.state.gen++
	a := &attempt{id: b.state.gen, done: make(chan struct{})}
	b.current = a
	b.phase = PhaseVerifying
	b.state.setVerifying(true)
	return a, nil
}

// resolve applies the verification result if a is still the live attempt.
func (b *Bootstrapper) resolve(ctx context.Context, a *attempt, id models.Identity, err error) {
	switch {
	case err == nil:
		n := id.Normalize()
		b.settle(ctx, a, &n, OutcomeVerified)
	case client.IsAuthFailure(err):
		b.settle(ctx, a, nil, OutcomeRejected)
	case errors.Is(err, client.ErrTimeout):
		b.settle(ctx, a, nil, OutcomeTimeout)
	default:
		b.log.Warn(ctx, "session verification failed, keeping credential", "attempt", a.id, "err", err)
		b.settle(ctx, a, nil, OutcomeFailed)
	}
}

func (b *Bootstrapper) expire(ctx context.Context, a *attempt) {
	b.log.Warn(ctx, "session verification timed out", "attempt", a.id, "timeout", b.timeout)
	b.settle(ctx, a, nil, OutcomeTimeout)
}

// settle is the single place an attempt ends. Results for an attempt
// that is no longer current, or already settled, are discarded.
func (b *Bootstrapper) settle(ctx context.Context, a *attempt, id *models.Identity, outcome Outcome) {
	b.state.session.Lock()
	defer b.state.session.Unlock()

	if a != b.current || b.phase != PhaseVerifying {
		b.log.Debug(ctx, "discarding stale verification result", "attempt", a.id, "outcome", outcome)
		return
	}

	switch outcome {
	case OutcomeRejected:
		b.clear(ctx, a)
		b.metrics.invalidated(ReasonBootstrapRejected)
	case OutcomeTimeout:
		if b.clearOnTimeout {
			b.clear(ctx, a)
		}
	}

	b.phase = PhaseSettled
	b.state.settleVerifying(id, b.pending > 0)
	b.finish(a, outcome)
}

func (b *Bootstrapper) clear(ctx context.Context, a *attempt) {
	if err := b.store.Clear(ctx); err != nil {
		b.log.Error(ctx, "failed to clear credential", "attempt", a.id, "err", err)
	}
}

// finish must be called with state.session held.
func (b *Bootstrapper) finish(a *attempt, outcome Outcome) {
	a.outcome = outcome
	close(a.done)
	b.metrics.bootstrapped(outcome)
}

// supersede ends any in-flight attempt without touching session state,
// then runs fn (if any) under the same lock. Login and logout write
// state through it so that a late verification result cannot overwrite
// theirs.
func (b *Bootstrapper) supersede(fn func()) {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	if b.phase == PhaseVerifying {
		b.phase = PhaseSettled
		b.finish(b.current, OutcomeSuperseded)
	}
	b.state.gen++
	b.current = nil
	if fn != nil {
		fn()
	}
}

// beginAuth marks a login or register call in flight. An in-flight
// attempt is left running: only a successful call supersedes it.
func (b *Bootstrapper) beginAuth() {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	b.pending++
	b.state.setVerifying(true)
}

// endAuth clears the verifying flag once no attempt and no other call is
// in flight.
func (b *Bootstrapper) endAuth() {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	b.pending--
	if b.pending == 0 && b.phase != PhaseVerifying {
		b.state.setVerifying(false)
	}
}

// generation is the current attempt counter; it changes on every Run and
// every supersede.
func (b *Bootstrapper) generation() uint64 {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	return b.state.gen
}

// applyIfCurrent runs fn under the session lock if gen is still current.
func (b *Bootstrapper) applyIfCurrent(gen uint64, fn func()) bool {
	b.state.session.Lock()
	defer b.state.session.Unlock()
	if gen != b.state.gen || b.phase == PhaseVerifying {
		return false
	}
	fn()
	return true
}
