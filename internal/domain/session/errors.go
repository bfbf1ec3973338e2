package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned when a phone number has no digits.
	ErrInvalidIdentifier = errors.New("phone number must contain at least one digit")
	// ErrSessionNotFound is returned when no session is registered for an identifier.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotReady is returned when a session has not finished authenticating.
	ErrNotReady = errors.New("session is not ready; scan the QR code or wait for authentication")
	// ErrNoTransport is returned by clients that hold no live connection.
	ErrNoTransport = errors.New("no transport handle available")
	// ErrObjectNotFound is returned by remote stores for missing keys.
	ErrObjectNotFound = errors.New("object not found")
	// ErrStoreUnavailable is returned when the remote store could not be reached.
	ErrStoreUnavailable = errors.New("remote store unavailable")
)

// ConfigurationError reports missing durable store settings.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("remote session storage is not configured; set %s", strings.Join(e.Missing, ", "))
}

// RestoreError reports a session that failed to restore.
type RestoreError struct {
	Identifier Identifier
	Err        error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore session %s: %v", e.Identifier, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}

// TransportError reports an operation against a session without a live connection.
type TransportError struct {
	Identifier Identifier
	Op         string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s session %s: %v", e.Op, e.Identifier, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemovalError reports a client that failed to release its resources.
type RemovalError struct {
	Identifier Identifier
	Err        error
}

func (e *RemovalError) Error() string {
	return fmt.Sprintf("destroy session %s: %v", e.Identifier, e.Err)
}

func (e *RemovalError) Unwrap() error {
	return e.Err
}
