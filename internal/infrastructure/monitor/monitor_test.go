package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

type fakeSource struct {
	mu        sync.Mutex
	summaries []session.Summary
	connected map[string]bool
	probed    []string
	removed   []string
}

func (f *fakeSource) ListSessions(context.Context) []session.Summary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Summary(nil), f.summaries...)
}

func (f *fakeSource) IsConnected(_ context.Context, phone string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, phone)
	return f.connected[phone]
}

func (f *fakeSource) Remove(_ context.Context, phone string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, phone)
	return true
}

func TestSweepProbesReadyAndRemovesStale(t *testing.T) {
	now := time.Now()
	source := &fakeSource{
		summaries: []session.Summary{
			{Identifier: "111", State: session.StateReady, CreatedAt: now.Add(-time.Hour)},
			{Identifier: "222", State: session.StateReady, CreatedAt: now.Add(-time.Hour)},
			{Identifier: "333", State: session.StateWaitingQR, CreatedAt: now.Add(-time.Hour)},
			{Identifier: "444", State: session.StateInitializing, CreatedAt: now.Add(-time.Minute)},
			{Identifier: "555", State: session.StateDisconnected, CreatedAt: now.Add(-time.Hour)},
		},
		connected: map[string]bool{"111": true},
	}

	m := New(source, 10*time.Minute, time.Minute, zerolog.Nop())
	m.now = func() time.Time { return now }
	m.sweep(context.Background())

	assert.ElementsMatch(t, []string{"111", "222"}, source.probed)
	assert.Equal(t, []string{"333"}, source.removed)
}

func TestSweepWithoutStaleTTLKeepsSessions(t *testing.T) {
	source := &fakeSource{
		summaries: []session.Summary{
			{Identifier: "333", State: session.StateWaitingQR, CreatedAt: time.Now().Add(-24 * time.Hour)},
		},
	}

	New(source, 0, time.Minute, zerolog.Nop()).sweep(context.Background())

	assert.Empty(t, source.removed)
}

func TestMonitorStartStop(t *testing.T) {
	source := &fakeSource{
		summaries: []session.Summary{
			{Identifier: "111", State: session.StateReady, CreatedAt: time.Now()},
		},
		connected: map[string]bool{"111": true},
	}

	m := New(source, time.Minute, 5*time.Millisecond, zerolog.Nop())
	m.Start(context.Background())
	m.Start(context.Background())

	assert.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return len(source.probed) > 0
	}, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop()
}
