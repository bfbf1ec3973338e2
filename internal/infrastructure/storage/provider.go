package storage

import (
	"context"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
)

// Store is a session.RemoteStore backed by S3 or the local filesystem.
type Store interface {
	session.RemoteStore
}

// New selects the storage backend from configuration.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Store, error) {
	if cfg.IsLocalStorage() {
		log.Info().Str("backend", "local").Msg("using local session storage")
		local, err := NewLocalStorage(cfg, log)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	log.Info().Str("backend", "s3").Msg("using S3 session storage")
	remote, err := NewS3Storage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return remote, nil
}
