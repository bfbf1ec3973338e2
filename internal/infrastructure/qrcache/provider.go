package qrcache

import (
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
)

// New selects the QR cache backend from configuration.
func New(cfg *config.Config, log zerolog.Logger) (session.QRCache, error) {
	if cfg.QRCacheBackend == "redis" {
		cache, err := NewRedis(cfg.RedisURL, cfg.QRCacheTTL, log)
		if err != nil {
			return nil, err
		}
		return cache, nil
	}
	cache, err := NewMemory(cfg.QRCacheSize, cfg.QRCacheTTL)
	if err != nil {
		return nil, err
	}
	return cache, nil
}
