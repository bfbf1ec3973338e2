package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain"
	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/auth"
	"jan-server/services/whatsapp-api/internal/infrastructure/bridge"
	"jan-server/services/whatsapp-api/internal/infrastructure/monitor"
	"jan-server/services/whatsapp-api/internal/infrastructure/qrcache"
	"jan-server/services/whatsapp-api/internal/infrastructure/storage"
	"jan-server/services/whatsapp-api/internal/interfaces"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideStore,
	ProvideRemoteStore,
	ProvideQRCache,
	ProvideClientFactory,
	ProvideBridgeHealth,
	ProvideAuthValidator,
	ProvideMonitor,
	ProvideDependencies,

	// Domain providers
	domain.ServiceProvider,

	// Interface providers
	interfaces.InterfacesProvider,

	// Application
	NewApplication,
)

// ProvideStore provides the remote session store.
func ProvideStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	return storage.New(ctx, cfg, log)
}

// ProvideRemoteStore exposes the store through the domain interface.
func ProvideRemoteStore(store storage.Store) session.RemoteStore {
	return store
}

// ProvideQRCache provides the QR cache backend.
func ProvideQRCache(cfg *config.Config, log zerolog.Logger) (session.QRCache, error) {
	return qrcache.New(cfg, log)
}

// ProvideClientFactory provides the bridge-backed client factory.
func ProvideClientFactory(cfg *config.Config, store session.RemoteStore, log zerolog.Logger) session.ClientFactory {
	return bridge.NewFactory(cfg, store, log)
}

// ProvideBridgeHealth provides the bridge worker health checker.
func ProvideBridgeHealth(cfg *config.Config) (*bridge.HealthChecker, error) {
	return bridge.NewHealthChecker(cfg)
}

// ProvideAuthValidator provides an auth validator.
func ProvideAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// ProvideMonitor provides the session monitor.
func ProvideMonitor(service session.Service, cfg *config.Config, log zerolog.Logger) *monitor.Monitor {
	return monitor.New(service, cfg.SessionStaleTTL, cfg.SessionMonitorInterval, log)
}

// ProvideDependencies collects the readiness checks.
func ProvideDependencies(store storage.Store, qr session.QRCache, bridgeHealth *bridge.HealthChecker) httpserver.Dependencies {
	deps := httpserver.Dependencies{
		"storage": store.Health,
		"bridge":  bridgeHealth.Check,
	}
	if checker, ok := qr.(interface{ Health(context.Context) error }); ok {
		deps["qr_cache"] = checker.Health
	}
	return deps
}
