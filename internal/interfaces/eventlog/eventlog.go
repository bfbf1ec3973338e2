// Package eventlog logs session lifecycle events and records their metrics.
package eventlog

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/metrics"
)

const maxBodyPreview = 100

// Subscriber consumes every event published on the session bus.
type Subscriber struct {
	bus     *session.Bus
	baseURL string
	log     zerolog.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// New creates an event log subscriber.
func New(bus *session.Bus, cfg *config.Config, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		bus:     bus,
		baseURL: cfg.BaseURL(),
		log:     log.With().Str("component", "session-events").Logger(),
	}
}

// Start subscribes to the bus. Calling it twice is a no-op.
func (s *Subscriber) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return
	}
	s.unsubscribe = s.bus.SubscribeAll(s.handle)
}

// Stop unsubscribes from the bus.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Subscriber) qrURL(id session.Identifier) string {
	return fmt.Sprintf("%s/v1/sessions/%s/qr", s.baseURL, id)
}

func (s *Subscriber) handle(ev session.Event) {
	metrics.RecordLifecycleEvent(string(ev.Kind))
	phone := ev.Identifier.String()

	switch ev.Kind {
	case session.EventQR:
		s.log.Info().
			Str("phone_number", phone).
			Str("qr_url", s.qrURL(ev.Identifier)).
			Msg("QR code received; scan it to link the device")

	case session.EventAuthenticated:
		s.log.Info().Str("phone_number", phone).Msg("session authenticated")

	case session.EventReady:
		event := s.log.Info().Str("phone_number", phone)
		if ev.Identity != nil {
			event = event.Str("wid", ev.Identity.WID).Str("pushname", ev.Identity.PushName)
		}
		event.Msg("session ready")

	case session.EventRemoteSessionSaved:
		s.log.Info().Str("phone_number", phone).Msg("session credentials saved to remote store")

	case session.EventAuthFailure:
		s.log.Error().
			Str("phone_number", phone).
			Str("reason", ev.Reason).
			Err(ev.Err).
			Msg("session authentication failed")

	case session.EventDisconnected:
		s.log.Warn().
			Str("phone_number", phone).
			Str("reason", ev.Reason).
			Msg("session disconnected")

	case session.EventError:
		s.log.Error().
			Str("phone_number", phone).
			Str("reason", ev.Reason).
			Err(ev.Err).
			Msg("session error")

	case session.EventMessage:
		if ev.Message == nil {
			return
		}
		s.log.Debug().
			Str("phone_number", phone).
			Str("from", ev.Message.From).
			Str("body", preview(ev.Message.Body)).
			Msg("message received")

	case session.EventSessionCreated:
		metrics.RecordSessionCreated()
		s.log.Debug().Str("phone_number", phone).Msg("session registered")

	case session.EventSessionRemoved:
		metrics.RecordSessionRemoved()
		s.log.Debug().Str("phone_number", phone).Msg("session unregistered")

	case session.EventRestored:
		metrics.RecordRestoreOutcome("restored")

	case session.EventRestoreFailed:
		metrics.RecordRestoreOutcome("failed")
		s.log.Warn().Str("phone_number", phone).Err(ev.Err).Msg("session restore failed")

	case session.EventPruned:
		metrics.RecordRestoreOutcome("pruned")
		s.log.Info().Str("phone_number", phone).Msg("unrestorable session pruned from remote store")
	}
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= maxBodyPreview {
		return body
	}
	return string(runes[:maxBodyPreview]) + "..."
}
