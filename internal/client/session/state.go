package session

import (
	"sync"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
)

// Snapshot is an immutable view of State. Version increases with every
// change, so a subscriber can drop a snapshot older than one it has seen.
type Snapshot struct {
	Identity  *models.Identity
	Verifying bool
	Version   uint64
}

// Authenticated reports whether an identity is present.
func (s Snapshot) Authenticated() bool { return s.Identity != nil }

// State is the session state container. Reads are safe from any goroutine;
// writes go through the named mutators and are owned by this package, except
// ResetIf which the response guard uses.
type State struct {
	// session serializes credential and identity transitions made by the
	// bootstrapper, the manager and the response guard. gen changes with
	// each of them and is the attempt counter.
	session sync.Mutex
	gen     uint64

	mu        sync.RWMutex
	identity  *models.Identity
	verifying bool
	version   uint64

	subs    map[uint64]func(Snapshot)
	nextSub uint64
}

func NewState() *State {
	return &State{subs: make(map[uint64]func(Snapshot))}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Identity returns a copy of the current identity.
func (s *State) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return s.identity.Clone(), true
}

func (s *State) Verifying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verifying
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// on the goroutine that made the change, outside the state lock. The
// returned function removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// ClearIdentity drops the current identity. verifying is left as is.
func (s *State) ClearIdentity() {
	s.update(func() bool {
		if s.identity == nil {
			return false
		}
		s.identity = nil
		return true
	})
}

// ResetIf runs check serialized with logins, logouts and bootstrap
// results. If check reports true the identity is dropped and any refresh
// started earlier will not be applied. verifying is left as is.
func (s *State) ResetIf(check func() bool) bool {
	s.session.Lock()
	defer s.session.Unlock()
	if !check() {
		return false
	}
	s.gen++
	s.ClearIdentity()
	return true
}

func (s *State) setIdentity(id models.Identity) {
	c := id.Clone()
	s.update(func() bool {
		s.identity = &c
		return true
	})
}

func (s *State) setVerifying(v bool) {
	s.update(func() bool {
		if s.verifying == v {
			return false
		}
		s.verifying = v
		return true
	})
}

// settle stores id (nil for absent) and ends verification in one change.
func (s *State) settle(id *models.Identity) {
	s.settleVerifying(id, false)
}

// settleVerifying stores id and sets verifying in one change.
func (s *State) settleVerifying(id *models.Identity, verifying bool) {
	var c *models.Identity
	if id != nil {
		cl := id.Clone()
		c = &cl
	}
	s.update(func() bool {
		if c == nil && s.identity == nil && s.verifying == verifying {
			return false
		}
		s.identity = c
		s.verifying = verifying
		return true
	})
}

// update applies mutate under the write lock and, if it reports a change,
// notifies subscribers after the lock is released.
func (s *State) update(mutate func() bool) {
	s.mu.Lock()
	if !mutate() {
		s.mu.Unlock()
		return
	}
	s.version++
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{Verifying: s.verifying, Version: s.version}
	if s.identity != nil {
		c := s.identity.Clone()
		snap.Identity = &c
	}
	return snap
}
