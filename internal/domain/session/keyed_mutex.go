package session

import "sync"

// keyedMutex serializes work per identifier while letting different
// identifiers proceed in parallel. Entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[Identifier]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[Identifier]*refMutex)}
}

func (k *keyedMutex) Lock(id Identifier) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
}

func (k *keyedMutex) Unlock(id Identifier) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		k.mu.Unlock()
		panic("session: unlock of unlocked identifier " + string(id))
	}
	m.refs--
	if m.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	m.mu.Unlock()
}
