package session

import (
	"context"
	"sync"
)

// FutureState is the resolution state of an IdentityFuture.
type FutureState int

const (
	// FuturePending means the identity has not resolved yet.
	FuturePending FutureState = iota
	// FutureResolved means the identity is available.
	FutureResolved
	// FutureFailed means resolution ended with an error.
	FutureFailed
)

// IdentityFuture is a single-assignment holder for a session identity.
// A nil *IdentityFuture is valid and always pending.
type IdentityFuture struct {
	once     sync.Once
	done     chan struct{}
	identity Identity
	err      error
}

// NewIdentityFuture returns a pending future.
func NewIdentityFuture() *IdentityFuture {
	return &IdentityFuture{done: make(chan struct{})}
}

// ResolvedIdentity returns a future that is already resolved.
func ResolvedIdentity(identity Identity) *IdentityFuture {
	f := NewIdentityFuture()
	f.Resolve(identity)
	return f
}

// Resolve assigns the identity. It reports false if the future was already settled.
func (f *IdentityFuture) Resolve(identity Identity) bool {
	settled := false
	f.once.Do(func() {
		f.identity = identity
		close(f.done)
		settled = true
	})
	return settled
}

// Fail settles the future with err. It reports false if the future was already settled.
func (f *IdentityFuture) Fail(err error) bool {
	settled := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future settles.
func (f *IdentityFuture) Done() <-chan struct{} {
	if f == nil {
		return nil
	}
	return f.done
}

// Result returns the current state without blocking.
func (f *IdentityFuture) Result() (Identity, FutureState, error) {
	if f == nil {
		return Identity{}, FuturePending, nil
	}
	select {
	case <-f.done:
		if f.err != nil {
			return Identity{}, FutureFailed, f.err
		}
		return f.identity, FutureResolved, nil
	default:
		return Identity{}, FuturePending, nil
	}
}

// Wait blocks until the future settles or ctx is done.
func (f *IdentityFuture) Wait(ctx context.Context) (Identity, error) {
	if f == nil {
		<-ctx.Done()
		return Identity{}, ctx.Err()
	}
	select {
	case <-f.done:
		if f.err != nil {
			return Identity{}, f.err
		}
		return f.identity, nil
	case <-ctx.Done():
		return Identity{}, ctx.Err()
	}
}

func identityResolved(f *IdentityFuture) bool {
	_, state, _ := f.Result()
	return state == FutureResolved
}
