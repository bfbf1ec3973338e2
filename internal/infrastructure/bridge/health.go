package bridge

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"jan-server/services/whatsapp-api/internal/config"
)

// HealthChecker probes the bridge worker's HTTP health endpoint.
type HealthChecker struct {
	client *resty.Client
	url    string
}

// NewHealthChecker targets WHATSAPP_BRIDGE_HEALTH_URL, or the bridge URL
// rewritten to http(s) with path /healthz.
func NewHealthChecker(cfg *config.Config) (*HealthChecker, error) {
	target := strings.TrimSpace(cfg.BridgeHealthURL)
	if target == "" {
		derived, err := healthURL(cfg.BridgeURL)
		if err != nil {
			return nil, err
		}
		target = derived
	}

	return &HealthChecker{
		client: resty.New().SetTimeout(5 * time.Second),
		url:    target,
	}, nil
}

func healthURL(bridgeURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(bridgeURL))
	if err != nil {
		return "", fmt.Errorf("parse bridge URL: %w", err)
	}
	switch parsed.Scheme {
	case "ws":
		parsed.Scheme = "http"
	case "wss":
		parsed.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported bridge URL scheme %q", parsed.Scheme)
	}
	parsed.Path = "/healthz"
	parsed.RawQuery = ""
	return parsed.String(), nil
}

// URL returns the probed endpoint.
func (h *HealthChecker) URL() string {
	return h.url
}

// Check returns an error unless the worker answers with a 2xx status.
func (h *HealthChecker) Check(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get(h.url)
	if err != nil {
		return fmt.Errorf("bridge health request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("bridge health returned %d", resp.StatusCode())
	}
	return nil
}
