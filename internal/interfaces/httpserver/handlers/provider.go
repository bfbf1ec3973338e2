package handlers

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Session *SessionHandler
}

// NewProvider creates a new handler provider.
func NewProvider(session *SessionHandler) *Provider {
	return &Provider{
		Session: session,
	}
}

// ProvideSessionHandler builds the session handler from configuration.
func ProvideSessionHandler(service session.Service, cfg *config.Config, log zerolog.Logger) *SessionHandler {
	return NewSessionHandler(service, cfg.QRWaitTimeout, cfg.BaseURL(), log)
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	ProvideSessionHandler,
	NewProvider,
)
