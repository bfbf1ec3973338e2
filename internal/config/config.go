package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the whatsapp-api service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"whatsapp-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"WHATSAPP_API_PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Auth (Keycloak) - uses global auth vars
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"ISSUER"`
	AuthAudience string `env:"AUDIENCE"`
	AuthJWKSURL  string `env:"JWKS_URL"`

	// Remote session storage
	StorageBackend   string `env:"WHATSAPP_STORAGE_BACKEND" envDefault:"s3"` // "s3" or "local"
	LocalStoragePath string `env:"WHATSAPP_LOCAL_STORAGE_PATH" envDefault:"./data/whatsapp-sessions"`
	S3Bucket         string `env:"AWS_S3_BUCKET_NAME"`
	S3AccessKeyID    string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region         string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Endpoint       string `env:"AWS_S3_ENDPOINT"`
	S3UsePathStyle   bool   `env:"AWS_S3_USE_PATH_STYLE" envDefault:"false"`
	RemoteDataPath   string `env:"AWS_S3_REMOTE_DATA_PATH" envDefault:"whatsapp-sessions/"`

	// Browser worker bridge
	BridgeURL            string        `env:"WHATSAPP_BRIDGE_URL" envDefault:"ws://localhost:3100/ws"`
	BridgeHealthURL      string        `env:"WHATSAPP_BRIDGE_HEALTH_URL"`
	BridgeDialTimeout    time.Duration `env:"WHATSAPP_BRIDGE_DIAL_TIMEOUT" envDefault:"10s"`
	BridgeRequestTimeout time.Duration `env:"WHATSAPP_BRIDGE_REQUEST_TIMEOUT" envDefault:"30s"`
	SnapshotInterval     time.Duration `env:"WHATSAPP_SNAPSHOT_INTERVAL" envDefault:"5m"`

	// QR cache
	QRCacheBackend string        `env:"QR_CACHE_BACKEND" envDefault:"memory"` // "memory" or "redis"
	QRCacheSize    int           `env:"QR_CACHE_SIZE" envDefault:"1024"`
	QRCacheTTL     time.Duration `env:"QR_CACHE_TTL" envDefault:"2m"`
	RedisURL       string        `env:"REDIS_URL"`

	// Session management
	ReadyWaitTimeout       time.Duration `env:"SESSION_READY_WAIT_TIMEOUT" envDefault:"2s"`
	SoftRetryDelay         time.Duration `env:"SESSION_SOFT_RETRY_DELAY" envDefault:"1s"`
	QRWaitTimeout          time.Duration `env:"SESSION_QR_WAIT_TIMEOUT" envDefault:"5s"`
	RestoreConcurrency     int           `env:"SESSION_RESTORE_CONCURRENCY" envDefault:"8"`
	RestoreReadyTimeout    time.Duration `env:"SESSION_RESTORE_READY_TIMEOUT" envDefault:"0s"`
	RestoreOnStartup       bool          `env:"SESSION_RESTORE_ON_STARTUP" envDefault:"true"`
	SessionMonitorInterval time.Duration `env:"SESSION_MONITOR_INTERVAL" envDefault:"30s"`
	SessionStaleTTL        time.Duration `env:"SESSION_STALE_TTL" envDefault:"10m"` // How long a session may sit unauthenticated
}

// Load parses environment variables into Config.
// Missing object store credentials are not a load error; sessions fail to
// create until they are set.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	// Validate auth configuration
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("JWKS_URL is required when AUTH_ENABLED is true")
		}
	}

	switch cfg.StorageBackend {
	case "s3", "local":
	default:
		return nil, fmt.Errorf("WHATSAPP_STORAGE_BACKEND must be \"s3\" or \"local\", got %q", cfg.StorageBackend)
	}

	switch cfg.QRCacheBackend {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return nil, fmt.Errorf("REDIS_URL is required when QR_CACHE_BACKEND is redis")
		}
	default:
		return nil, fmt.Errorf("QR_CACHE_BACKEND must be \"memory\" or \"redis\", got %q", cfg.QRCacheBackend)
	}

	if cfg.QRCacheSize <= 0 {
		return nil, fmt.Errorf("QR_CACHE_SIZE must be positive")
	}

	return cfg, nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage reports whether sessions persist to the local filesystem.
func (c *Config) IsLocalStorage() bool {
	return c.StorageBackend == "local"
}

// IsS3Storage reports whether sessions persist to S3.
func (c *Config) IsS3Storage() bool {
	return c.StorageBackend == "s3"
}

// BaseURL returns the externally reachable base URL used in log links.
func (c *Config) BaseURL() string {
	if base := strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/"); base != "" {
		return base
	}
	return fmt.Sprintf("http://localhost:%d", c.HTTPPort)
}
