package session

import (
	"strings"
	"time"
)

// Identifier is the digits-only key of a session, derived from a phone number.
type Identifier string

// Normalize strips every non-digit character from raw.
// It never fails and Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) Identifier {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return Identifier(b.String())
}

func (id Identifier) String() string {
	return string(id)
}

// Empty reports whether the identifier carries no digits.
func (id Identifier) Empty() bool {
	return id == ""
}

// ChatID formats a destination as a WhatsApp user chat id.
// Destinations that already carry the @c.us suffix are returned unchanged.
func ChatID(to string) string {
	if strings.Contains(to, "@c.us") {
		return to
	}
	return Normalize(to).String() + "@c.us"
}

// State is the lifecycle state of a session. It is derived on read from
// client signals and never stored.
type State string

const (
	// StateNotInitialized indicates a registered client that was never started.
	StateNotInitialized State = "not_initialized"
	// StateInitializing indicates the client was started and has not shown a QR yet.
	StateInitializing State = "initializing"
	// StateWaitingQR indicates a QR code is waiting to be scanned.
	StateWaitingQR State = "waiting_qr"
	// StateReady indicates the account identity has resolved.
	StateReady State = "ready"
	// StateDisconnected indicates the transport dropped after startup.
	StateDisconnected State = "disconnected"
	// StateError indicates an authentication failure or client error.
	StateError State = "error"
	// StateRemoved is terminal.
	StateRemoved State = "removed"
)

// Identity describes the authenticated WhatsApp account of a session.
type Identity struct {
	WID      string `json:"wid"`
	PushName string `json:"pushname,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// InboundMessage is a message received by a session.
type InboundMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	FromMe    bool      `json:"from_me"`
	Timestamp time.Time `json:"timestamp"`
}

// SendResult is returned by a successful send.
type SendResult struct {
	MessageID string    `json:"message_id,omitempty"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is a point-in-time view of one registered session.
type Summary struct {
	Identifier Identifier `json:"phone_number"`
	State      State      `json:"status"`
	Ready      bool       `json:"ready"`
	HasQR      bool       `json:"has_qr"`
	CreatedAt  time.Time  `json:"created_at"`
}

// StatusView answers a status query for an identifier that may not be registered.
type StatusView struct {
	Identifier Identifier `json:"phone_number"`
	State      State      `json:"status"`
	Ready      bool       `json:"ready"`
	HasQR      bool       `json:"has_qr"`
	HasClient  bool       `json:"has_client"`
	Identity   *Identity  `json:"identity,omitempty"`
}

// RestoreResult aggregates one reconciliation run.
type RestoreResult struct {
	SuccessCount int      `json:"restored"`
	FailedCount  int      `json:"failed"`
	RemovedCount int      `json:"removed"`
	Errors       []string `json:"errors"`
}
