package httpserver

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/domain/session"
)

type mockService struct {
	InitializeFunc   func(ctx context.Context, phone string, force bool) error
	StatusFunc       func(ctx context.Context, phone string) (*session.StatusView, error)
	ListSessionsFunc func(ctx context.Context) []session.Summary
	QRCodeFunc       func(ctx context.Context, phone string) (string, bool)
	WaitQRCodeFunc   func(ctx context.Context, phone string, timeout time.Duration) (string, bool)
	RemoveFunc       func(ctx context.Context, phone string) bool
	LogoutFunc       func(ctx context.Context, phone string) error
	SendMessageFunc  func(ctx context.Context, phone, to, body string) (*session.SendResult, error)
	RestoreAllFunc   func(ctx context.Context) *session.RestoreResult
}

var _ session.Service = (*mockService)(nil)

func (m *mockService) GetOrCreate(context.Context, string) (*session.Session, error) {
	return nil, nil
}

func (m *mockService) Initialize(ctx context.Context, phone string, force bool) error {
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, phone, force)
	}
	return nil
}

func (m *mockService) IsReady(string) bool { return false }

func (m *mockService) IsReadyAsync(context.Context, string) bool { return false }

func (m *mockService) IsConnected(context.Context, string) bool { return false }

func (m *mockService) ListIdentifiers() []session.Identifier { return nil }

func (m *mockService) ListSessions(ctx context.Context) []session.Summary {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return nil
}

func (m *mockService) Status(ctx context.Context, phone string) (*session.StatusView, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, phone)
	}
	id := session.Normalize(phone)
	if id.Empty() {
		return nil, session.ErrInvalidIdentifier
	}
	return &session.StatusView{Identifier: id, State: session.StateNotInitialized}, nil
}

func (m *mockService) QRCode(ctx context.Context, phone string) (string, bool) {
	if m.QRCodeFunc != nil {
		return m.QRCodeFunc(ctx, phone)
	}
	return "", false
}

func (m *mockService) WaitQRCode(ctx context.Context, phone string, timeout time.Duration) (string, bool) {
	if m.WaitQRCodeFunc != nil {
		return m.WaitQRCodeFunc(ctx, phone, timeout)
	}
	return m.QRCode(ctx, phone)
}

func (m *mockService) Remove(ctx context.Context, phone string) bool {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, phone)
	}
	return false
}

func (m *mockService) Logout(ctx context.Context, phone string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, phone)
	}
	return nil
}

func (m *mockService) SendMessage(ctx context.Context, phone, to, body string) (*session.SendResult, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, phone, to, body)
	}
	return nil, session.ErrSessionNotFound
}

func (m *mockService) RestoreAll(ctx context.Context) *session.RestoreResult {
	if m.RestoreAllFunc != nil {
		return m.RestoreAllFunc(ctx)
	}
	return &session.RestoreResult{}
}

func (m *mockService) Events() *session.Bus { return session.NewBus(zerolog.Nop()) }

func (m *mockService) Shutdown(context.Context) {}
