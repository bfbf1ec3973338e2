package qrcache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

type entry struct {
	qr        string
	expiresAt time.Time
}

// Memory is a bounded in-process QR cache. Least recently used entries are
// evicted first; a zero ttl keeps entries until evicted or deleted.
type Memory struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemory creates an in-process QR cache holding at most size entries.
func NewMemory(size int, ttl time.Duration) (*Memory, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create qr cache: %w", err)
	}
	return &Memory{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (m *Memory) Set(_ context.Context, id session.Identifier, qr string) error {
	e := entry{qr: qr}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.cache.Add(id, e)
	return nil
}

func (m *Memory) Get(_ context.Context, id session.Identifier) (string, bool) {
	raw, ok := m.cache.Get(id)
	if !ok {
		return "", false
	}
	e := raw.(entry)
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.cache.Remove(id)
		return "", false
	}
	return e.qr, true
}

func (m *Memory) Delete(_ context.Context, id session.Identifier) error {
	m.cache.Remove(id)
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (m *Memory) Len() int {
	return m.cache.Len()
}
