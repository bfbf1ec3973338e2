package session

import (
	"sync"
	"time"
)

// Session is the registry handle for one identifier. It owns exactly one
// Client and the state derived from that client's events.
type Session struct {
	id        Identifier
	namespace string
	client    Client
	createdAt time.Time

	mu         sync.RWMutex
	started    bool
	awaitingQR bool
	fault      State
	reason     string
	removed    bool

	done     chan struct{}
	doneOnce sync.Once
}

func newSession(id Identifier, namespace string, client Client) *Session {
	return &Session{
		id:        id,
		namespace: namespace,
		client:    client,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Identifier returns the session key.
func (s *Session) Identifier() Identifier { return s.id }

// Namespace returns the remote store prefix owned by the session.
func (s *Session) Namespace() string { return s.namespace }

// Client returns the wrapped client.
func (s *Session) Client() Client { return s.client }

// CreatedAt returns when the session was registered.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// State derives the lifecycle state. READY is only reported once the
// client identity has resolved.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.removed:
		return StateRemoved
	case s.fault != "":
		return s.fault
	case identityResolved(s.client.Identity()):
		return StateReady
	case s.awaitingQR:
		return StateWaitingQR
	case s.started:
		return StateInitializing
	default:
		return StateNotInitialized
	}
}

// Ready reports whether the session is in StateReady.
func (s *Session) Ready() bool {
	return s.State() == StateReady
}

// FaultReason returns the reason attached to the last disconnect or error.
func (s *Session) FaultReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

func (s *Session) identity() *Identity {
	identity, state, _ := s.client.Identity().Result()
	if state != FutureResolved {
		return nil
	}
	return &identity
}

func (s *Session) markStarted() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

func (s *Session) setAwaitingQR(waiting bool) {
	s.mu.Lock()
	s.awaitingQR = waiting
	s.mu.Unlock()
}

func (s *Session) setFault(state State, reason string) {
	s.mu.Lock()
	s.fault = state
	s.reason = reason
	s.mu.Unlock()
}

// recordError keeps a ready session ready: the reason is recorded but only
// sessions without a resolved identity move to StateError.
func (s *Session) recordError(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reason = reason
	if s.fault == "" && identityResolved(s.client.Identity()) {
		return
	}
	s.fault = StateError
}

func (s *Session) clearFault() {
	s.mu.Lock()
	s.fault = ""
	s.reason = ""
	s.mu.Unlock()
}

// markRemoved flips the session to REMOVED and stops its event pump.
func (s *Session) markRemoved() {
	s.mu.Lock()
	s.removed = true
	s.mu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
}

// whileActive runs fn unless the session was removed. Removal waits for fn.
func (s *Session) whileActive(fn func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.removed {
		return false
	}
	fn()
	return true
}

func (s *Session) isRemoved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.removed
}
