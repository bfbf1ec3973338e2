package domain

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain/session"
)

// ProvideEventBus provides the lifecycle event bus.
func ProvideEventBus(log zerolog.Logger) *session.Bus {
	return session.NewBus(log)
}

// ProvideRegistry provides the session registry.
func ProvideRegistry(
	factory session.ClientFactory,
	store session.RemoteStore,
	qr session.QRCache,
	bus *session.Bus,
	cfg *config.Config,
	log zerolog.Logger,
) *session.Registry {
	return session.NewRegistry(factory, store, qr, bus, cfg.RemoteDataPath, log)
}

// ProvideController provides the lifecycle controller.
func ProvideController(registry *session.Registry, cfg *config.Config, log zerolog.Logger) *session.Controller {
	return session.NewController(registry, session.ControllerOptions{
		ReadyWaitTimeout: cfg.ReadyWaitTimeout,
		SoftRetryDelay:   cfg.SoftRetryDelay,
	}, log)
}

// ProvideReconciler provides the restore engine.
func ProvideReconciler(controller *session.Controller, cfg *config.Config, log zerolog.Logger) *session.Reconciler {
	return session.NewReconciler(controller, session.ReconcilerOptions{
		Concurrency:  cfg.RestoreConcurrency,
		ReadyTimeout: cfg.RestoreReadyTimeout,
	}, log)
}

// ProvideSessionService provides a session service.
func ProvideSessionService(
	registry *session.Registry,
	controller *session.Controller,
	reconciler *session.Reconciler,
	log zerolog.Logger,
) session.Service {
	return session.NewService(registry, controller, reconciler, log)
}

// ServiceProvider provides all domain services.
var ServiceProvider = wire.NewSet(
	ProvideEventBus,
	ProvideRegistry,
	ProvideController,
	ProvideReconciler,
	ProvideSessionService,
)
