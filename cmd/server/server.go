// @title           WhatsApp API
// @version         1.0
// @description     WhatsApp multi-session API.
// @description     Manages linked WhatsApp Web sessions, QR handoff and outbound messages.

// @contact.name   Jan Team
// @contact.url    https://github.com/janhq/jan-server

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token from Keycloak

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/config"
	"jan-server/services/whatsapp-api/internal/domain"
	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/auth"
	"jan-server/services/whatsapp-api/internal/infrastructure/logger"
	"jan-server/services/whatsapp-api/internal/infrastructure/metrics"
	"jan-server/services/whatsapp-api/internal/infrastructure/monitor"
	"jan-server/services/whatsapp-api/internal/infrastructure/observability"
	"jan-server/services/whatsapp-api/internal/interfaces/eventlog"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/whatsapp-api/internal/interfaces/httpserver/routes"
)

// Application holds the main application components.
type Application struct {
	cfg        *config.Config
	httpServer *httpserver.HTTPServer
	sessions   session.Service
	events     *eventlog.Subscriber
	monitor    *monitor.Monitor
	validator  *auth.Validator
	qrCache    session.QRCache
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(
	cfg *config.Config,
	httpServer *httpserver.HTTPServer,
	sessions session.Service,
	events *eventlog.Subscriber,
	sessionMonitor *monitor.Monitor,
	validator *auth.Validator,
	qrCache session.QRCache,
	log zerolog.Logger,
) *Application {
	return &Application{
		cfg:        cfg,
		httpServer: httpServer,
		sessions:   sessions,
		events:     events,
		monitor:    sessionMonitor,
		validator:  validator,
		qrCache:    qrCache,
		log:        log,
	}
}

// Start runs the application until ctx is cancelled, then tears every
// session down.
func (a *Application) Start(ctx context.Context) error {
	a.events.Start()

	if a.cfg.RestoreOnStartup {
		go a.restore(ctx)
	}

	a.monitor.Start(ctx)

	// Run HTTP server (blocks until context cancelled)
	err := a.httpServer.Run(ctx)

	a.shutdown()
	return err
}

func (a *Application) restore(ctx context.Context) {
	a.log.Info().Msg("restoring sessions from remote storage")
	start := time.Now()
	result := a.sessions.RestoreAll(ctx)
	metrics.RestoreDuration.Observe(time.Since(start).Seconds())

	event := a.log.Info()
	if result.FailedCount > 0 {
		event = a.log.Warn().Strs("errors", result.Errors)
	}
	event.
		Int("restored", result.SuccessCount).
		Int("failed", result.FailedCount).
		Int("removed", result.RemovedCount).
		Dur("duration", time.Since(start)).
		Msg("session restore finished")
}

func (a *Application) shutdown() {
	a.monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	a.sessions.Shutdown(ctx)

	a.events.Stop()
	a.validator.Close()
	if closer, ok := a.qrCache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close qr cache")
		}
	}
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup observability
	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	app, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build application")
	}

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Str("storage_backend", cfg.StorageBackend).
		Str("bridge_url", cfg.BridgeURL).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// buildApplication wires the application by hand, mirroring CreateApplication.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	store, err := ProvideStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("remote store: %w", err)
	}
	if err := store.Enabled(); err != nil {
		// Not fatal: sessions fail to create until storage is configured.
		log.Warn().Err(err).Msg("remote session storage is not configured")
	}

	qrCache, err := ProvideQRCache(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("qr cache: %w", err)
	}

	bridgeHealth, err := ProvideBridgeHealth(cfg)
	if err != nil {
		return nil, fmt.Errorf("bridge health: %w", err)
	}

	authValidator, err := ProvideAuthValidator(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("auth validator: %w", err)
	}

	remoteStore := ProvideRemoteStore(store)
	factory := ProvideClientFactory(cfg, remoteStore, log)

	bus := domain.ProvideEventBus(log)
	registry := domain.ProvideRegistry(factory, remoteStore, qrCache, bus, cfg, log)
	controller := domain.ProvideController(registry, cfg, log)
	reconciler := domain.ProvideReconciler(controller, cfg, log)
	sessionService := domain.ProvideSessionService(registry, controller, reconciler, log)

	events := eventlog.New(bus, cfg, log)
	sessionMonitor := ProvideMonitor(sessionService, cfg, log)

	handlerProvider := handlers.NewProvider(handlers.ProvideSessionHandler(sessionService, cfg, log))
	routeProvider := routes.NewProvider(handlerProvider, authValidator)
	httpServer := httpserver.New(cfg, log, routeProvider, authValidator, ProvideDependencies(store, qrCache, bridgeHealth))

	return NewApplication(cfg, httpServer, sessionService, events, sessionMonitor, authValidator, qrCache, log), nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
