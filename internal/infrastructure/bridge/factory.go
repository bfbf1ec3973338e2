package bridge

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
)

// Factory creates bridge clients that persist credentials to store.
type Factory struct {
	store session.RemoteStore
	opts  Options
	log   zerolog.Logger
}

// NewFactory creates a client factory from configuration.
func NewFactory(cfg *config.Config, store session.RemoteStore, log zerolog.Logger) *Factory {
	return &Factory{
		store: store,
		opts: Options{
			URL:              strings.TrimSpace(cfg.BridgeURL),
			DialTimeout:      cfg.BridgeDialTimeout,
			RequestTimeout:   cfg.BridgeRequestTimeout,
			SnapshotInterval: cfg.SnapshotInterval,
		},
		log: log,
	}
}

// NewClient validates configuration and returns an unstarted client.
func (f *Factory) NewClient(_ context.Context, id session.Identifier, namespace string) (session.Client, error) {
	if err := f.store.Enabled(); err != nil {
		return nil, err
	}
	if f.opts.URL == "" {
		return nil, &session.ConfigurationError{Missing: []string{"WHATSAPP_BRIDGE_URL"}}
	}
	return NewClient(id, namespace, f.store, f.opts, f.log), nil
}
