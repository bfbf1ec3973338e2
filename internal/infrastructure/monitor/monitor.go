package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/metrics"
)

// SessionSource is the subset of session.Service the monitor needs.
type SessionSource interface {
	ListSessions(ctx context.Context) []session.Summary
	IsConnected(ctx context.Context, phoneNumber string) bool
	Remove(ctx context.Context, phoneNumber string) bool
}

// Monitor periodically inspects registered sessions:
// - records the per-state session gauge
// - probes ready sessions and logs lost connectivity
// - removes sessions stuck before authentication longer than staleTTL
type Monitor struct {
	sessions  SessionSource
	staleTTL  time.Duration
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a session monitor.
func New(sessions SessionSource, staleTTL, interval time.Duration, log zerolog.Logger) *Monitor {
	return &Monitor{
		sessions: sessions,
		staleTTL: staleTTL,
		interval: interval,
		log:      log.With().Str("component", "session-monitor").Logger(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins the monitor loop in background.
// Safe to call multiple times - only the first call starts the monitor.
func (m *Monitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.log.Info().Msg("session monitor disabled")
		return
	}
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.run(ctx)
		m.log.Info().Dur("interval", m.interval).Msg("session monitor started")
	})
}

// Stop gracefully shuts down the monitor.
// Safe to call multiple times - only the first call stops the monitor.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		m.log.Info().Msg("session monitor stopped")
	})
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.Debug().Msg("context cancelled, shutting down monitor")
			return
		case <-m.done:
			m.log.Debug().Msg("done signal received, shutting down monitor")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	summaries := m.sessions.ListSessions(ctx)
	now := m.now()

	counts := make(map[string]int)
	lost, stale := 0, 0

	for _, sum := range summaries {
		counts[string(sum.State)]++
		phone := sum.Identifier.String()

		switch sum.State {
		case session.StateReady:
			connected := m.sessions.IsConnected(ctx, phone)
			metrics.RecordProbe(connected)
			if !connected {
				lost++
				m.log.Warn().
					Str("phone_number", phone).
					Msg("ready session lost connectivity")
			}

		case session.StateInitializing, session.StateWaitingQR:
			if m.staleTTL <= 0 || now.Sub(sum.CreatedAt) <= m.staleTTL {
				continue
			}
			if m.sessions.Remove(ctx, phone) {
				stale++
				counts[string(sum.State)]--
				m.log.Info().
					Str("action", "removed").
					Str("phone_number", phone).
					Str("reason", "stale").
					Dur("age", now.Sub(sum.CreatedAt)).
					Msg("session cleanup")
			}
		}
	}

	metrics.SetSessionStates(counts)

	m.log.Debug().
		Int("sessions", len(summaries)).
		Int("lost", lost).
		Int("stale_removed", stale).
		Msg("monitor cycle")
}
