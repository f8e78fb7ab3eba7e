package client

import (
	"context"
	"sync"
)

/*************
 * Fake credential store
 *************/

type fakeStore struct {
	mu sync.Mutex

	token string

	getErr   error
	setErr   error
	clearErr error

	gets   int
	clears int
}

func (f *fakeStore) Get(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.token, nil
}

func (f *fakeStore) Set(_ context.Context, tok string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.token = tok
	return nil
}

func (f *fakeStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token = ""
	return nil
}

func (f *fakeStore) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

type fakeIdentity struct {
	mu      sync.Mutex
	cleared int
}

func (f *fakeIdentity) ResetIf(check func() bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !check() {
		return false
	}
	f.cleared++
	return true
}

func (f *fakeIdentity) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

const wellFormed = "header.payload.signature"
