package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Service defines the session operations exposed to transports.
type Service interface {
	GetOrCreate(ctx context.Context, phoneNumber string) (*Session, error)
	Initialize(ctx context.Context, phoneNumber string, forceRecreate bool) error
	IsReady(phoneNumber string) bool
	IsReadyAsync(ctx context.Context, phoneNumber string) bool
	IsConnected(ctx context.Context, phoneNumber string) bool
	ListIdentifiers() []Identifier
	ListSessions(ctx context.Context) []Summary
	Status(ctx context.Context, phoneNumber string) (*StatusView, error)
	QRCode(ctx context.Context, phoneNumber string) (string, bool)
	WaitQRCode(ctx context.Context, phoneNumber string, timeout time.Duration) (string, bool)
	Remove(ctx context.Context, phoneNumber string) bool
	Logout(ctx context.Context, phoneNumber string) error
	SendMessage(ctx context.Context, phoneNumber, to, body string) (*SendResult, error)
	RestoreAll(ctx context.Context) *RestoreResult
	Events() *Bus
	Shutdown(ctx context.Context)
}

type service struct {
	registry   *Registry
	controller *Controller
	reconciler *Reconciler
	log        zerolog.Logger
}

// NewService composes registry, controller and reconciler.
func NewService(registry *Registry, controller *Controller, reconciler *Reconciler, log zerolog.Logger) Service {
	return &service{
		registry:   registry,
		controller: controller,
		reconciler: reconciler,
		log:        log.With().Str("component", "session-service").Logger(),
	}
}

func (s *service) GetOrCreate(ctx context.Context, phoneNumber string) (*Session, error) {
	return s.registry.GetOrCreate(ctx, phoneNumber)
}

func (s *service) Initialize(ctx context.Context, phoneNumber string, forceRecreate bool) error {
	_, err := s.controller.Initialize(ctx, phoneNumber, forceRecreate)
	return err
}

func (s *service) IsReady(phoneNumber string) bool {
	return s.controller.IsReady(phoneNumber)
}

func (s *service) IsReadyAsync(ctx context.Context, phoneNumber string) bool {
	return s.controller.IsReadyAsync(ctx, phoneNumber)
}

func (s *service) IsConnected(ctx context.Context, phoneNumber string) bool {
	return s.controller.IsConnected(ctx, phoneNumber)
}

func (s *service) ListIdentifiers() []Identifier {
	return s.registry.List()
}

func (s *service) ListSessions(ctx context.Context) []Summary {
	return s.controller.Summaries(ctx)
}

func (s *service) Status(ctx context.Context, phoneNumber string) (*StatusView, error) {
	return s.controller.Status(ctx, phoneNumber)
}

func (s *service) QRCode(ctx context.Context, phoneNumber string) (string, bool) {
	return s.controller.QRCode(ctx, phoneNumber)
}

func (s *service) WaitQRCode(ctx context.Context, phoneNumber string, timeout time.Duration) (string, bool) {
	return s.controller.WaitQRCode(ctx, phoneNumber, timeout)
}

func (s *service) Remove(ctx context.Context, phoneNumber string) bool {
	return s.registry.Remove(ctx, phoneNumber)
}

func (s *service) Logout(ctx context.Context, phoneNumber string) error {
	return s.controller.Logout(ctx, phoneNumber)
}

func (s *service) SendMessage(ctx context.Context, phoneNumber, to, body string) (*SendResult, error) {
	return s.controller.SendMessage(ctx, phoneNumber, to, body)
}

func (s *service) RestoreAll(ctx context.Context) *RestoreResult {
	return s.reconciler.RestoreAll(ctx)
}

func (s *service) Events() *Bus {
	return s.registry.bus
}

func (s *service) Shutdown(ctx context.Context) {
	count := len(s.registry.List())
	s.registry.Shutdown(ctx)
	s.log.Info().Int("sessions", count).Msg("local sessions shut down")
}
