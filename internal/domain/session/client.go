package session

import "context"

// EventKind names a lifecycle event.
type EventKind string

const (
	EventQR                 EventKind = "qr"
	EventAuthenticated      EventKind = "authenticated"
	EventReady              EventKind = "ready"
	EventRemoteSessionSaved EventKind = "remote_session_saved"
	EventAuthFailure        EventKind = "auth_failure"
	EventDisconnected       EventKind = "disconnected"
	EventError              EventKind = "error"
	EventMessage            EventKind = "message"

	// Emitted by the registry and reconciler rather than by clients.
	EventSessionCreated EventKind = "session_created"
	EventSessionRemoved EventKind = "session_removed"
	EventRestored       EventKind = "restored"
	EventRestoreFailed  EventKind = "restore_failed"
	EventPruned         EventKind = "pruned"
)

// ClientEvent is emitted by a Client over its Events channel.
type ClientEvent struct {
	Kind    EventKind
	QR      string
	Reason  string
	Err     error
	Message *InboundMessage
}

// Client is a long-lived connection to one WhatsApp account.
type Client interface {
	// Start connects the client. It returns once the connection is
	// requested and does not wait for authentication.
	Start(ctx context.Context) error

	// Identity returns the in-flight or settled identity resolution, or nil
	// when none has begun.
	Identity() *IdentityFuture

	// Send delivers body to a chat id.
	Send(ctx context.Context, to, body string) (*SendResult, error)

	// Probe performs a liveness round trip against the transport.
	Probe(ctx context.Context) error

	// Destroy releases every resource held by the client.
	Destroy(ctx context.Context) error

	// Logout unlinks the device and discards persisted credentials.
	Logout(ctx context.Context) error

	// Events delivers lifecycle events in emission order.
	Events() <-chan ClientEvent
}

// ClientFactory constructs clients bound to a remote store namespace.
type ClientFactory interface {
	NewClient(ctx context.Context, id Identifier, namespace string) (Client, error)
}
