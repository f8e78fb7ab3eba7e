// Package credstore persists the single bearer credential held by the client.
//
// Stores are purely mechanical: they never validate what they hold. The
// session core and the request authorizer decide what a stored value means.
package credstore

import (
	"context"
	"sync"
	"time"
)

// Store is durable key/value persistence of one bearer token.
//
// Get returns "" with a nil error when no token is stored. Clear is
// idempotent.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local Store. It does not survive restarts and
// is meant for tests and for running without a state file.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	setAt time.Time
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.setAt = m.now().UTC()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.setAt = time.Time{}
	return nil
}

// SetAt returns when the current token was stored, or the zero time.
func (m *MemoryStore) SetAt(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setAt, nil
}
