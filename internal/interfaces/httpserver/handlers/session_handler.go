package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/whatsapp-api/internal/domain/session"
	"jan-server/services/whatsapp-api/internal/infrastructure/metrics"
)

// QRView is what the QR endpoints render for one phone number.
type QRView struct {
	PhoneNumber string
	QR          string
	HasQR       bool
	Ready       bool
	Registered  bool
}

// SessionHandler handles session-related HTTP requests.
type SessionHandler struct {
	service       session.Service
	qrWaitTimeout time.Duration
	baseURL       string
	log           zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service session.Service, qrWaitTimeout time.Duration, baseURL string, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service:       service,
		qrWaitTimeout: qrWaitTimeout,
		baseURL:       strings.TrimRight(baseURL, "/"),
		log:           log.With().Str("component", "session-handler").Logger(),
	}
}

// QRURL returns the browser URL of the QR page for phone.
func (h *SessionHandler) QRURL(phone session.Identifier) string {
	return fmt.Sprintf("%s/v1/sessions/%s/qr", h.baseURL, phone)
}

// ListSessions returns a summary of every registered session.
func (h *SessionHandler) ListSessions(ctx context.Context) []session.Summary {
	return h.service.ListSessions(ctx)
}

// RestoreSessions reconciles local sessions with remote storage.
func (h *SessionHandler) RestoreSessions(ctx context.Context) *session.RestoreResult {
	start := time.Now()
	result := h.service.RestoreAll(ctx)
	metrics.RestoreDuration.Observe(time.Since(start).Seconds())
	return result
}

// Initialize starts a session and reports its status afterwards.
func (h *SessionHandler) Initialize(ctx context.Context, phone string, force bool) (*session.StatusView, error) {
	if err := h.service.Initialize(ctx, phone, force); err != nil {
		return nil, err
	}
	return h.service.Status(ctx, phone)
}

// Status reports one phone number's session.
func (h *SessionHandler) Status(ctx context.Context, phone string) (*session.StatusView, error) {
	return h.service.Status(ctx, phone)
}

// Logout unlinks the device and removes the session.
func (h *SessionHandler) Logout(ctx context.Context, phone string) error {
	if session.Normalize(phone).Empty() {
		return session.ErrInvalidIdentifier
	}
	return h.service.Logout(ctx, phone)
}

// Delete removes the local session only. It reports whether one existed.
func (h *SessionHandler) Delete(ctx context.Context, phone string) (bool, error) {
	if session.Normalize(phone).Empty() {
		return false, session.ErrInvalidIdentifier
	}
	return h.service.Remove(ctx, phone), nil
}

// QRCode returns the pending QR payload. When wait is set and no payload is
// cached it waits up to the configured timeout for the next one.
func (h *SessionHandler) QRCode(ctx context.Context, phone string, wait bool) (*QRView, error) {
	id := session.Normalize(phone)
	if id.Empty() {
		return nil, session.ErrInvalidIdentifier
	}

	view := &QRView{PhoneNumber: id.String()}
	if wait {
		view.QR, view.HasQR = h.service.WaitQRCode(ctx, phone, h.qrWaitTimeout)
	} else {
		view.QR, view.HasQR = h.service.QRCode(ctx, phone)
	}

	status, err := h.service.Status(ctx, phone)
	if err != nil {
		return nil, err
	}
	view.Ready = status.Ready
	view.Registered = status.HasClient
	if view.Ready {
		view.QR, view.HasQR = "", false
	}
	return view, nil
}

// SendMessage sends body to the chat to from phone.
func (h *SessionHandler) SendMessage(ctx context.Context, phone, to, body string) (*session.SendResult, error) {
	result, err := h.service.SendMessage(ctx, phone, to, body)
	if err != nil {
		metrics.RecordMessageSent("failed")
		h.log.Warn().Err(err).Str("phone_number", phone).Msg("send message failed")
		return nil, err
	}
	metrics.RecordMessageSent("sent")
	return result, nil
}
