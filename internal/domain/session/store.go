package session

import "context"

// Listing is the result of a delimited prefix listing.
type Listing struct {
	Keys           []string
	CommonPrefixes []string
}

// RemoteStore defines the durable blob store holding session credentials.
// Keys are slash separated; listings group on "/".
type RemoteStore interface {
	// Enabled returns a *ConfigurationError when the store cannot be used.
	Enabled() error

	// Put writes data under key.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the data under key or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Head reports whether key exists.
	Head(ctx context.Context, key string) (bool, error)

	// ListByPrefix lists keys and common prefixes directly under prefix.
	ListByPrefix(ctx context.Context, prefix string) (*Listing, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key under prefix and returns the count.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Health checks connectivity with the backend.
	Health(ctx context.Context) error
}

// QRCache holds the latest QR payload per identifier.
type QRCache interface {
	Set(ctx context.Context, id Identifier, qr string) error
	Get(ctx context.Context, id Identifier) (string, bool)
	Delete(ctx context.Context, id Identifier) error
}
