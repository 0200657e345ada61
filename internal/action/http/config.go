package http

import (
	"log/slog"

	"github.com/tombee/callout/pkg/httpclient"
	"go.opentelemetry.io/otel/trace"
)

// Config holds configuration for the HTTP action.
type Config struct {
	// Client sends the requests. When nil, one is built from HTTPClient.
	Client Doer

	// HTTPClient configures the client built when Client is nil.
	// Its default has no timeout.
	HTTPClient httpclient.Config

	// Logger receives dispatch diagnostics (default: slog.Default()).
	Logger *slog.Logger

	// Tracer records a span per dispatch (default: the global tracer).
	Tracer trace.Tracer

	// Recorder receives dispatch metrics (optional).
	Recorder Recorder

	// AllowedHosts restricts which hosts can be contacted (empty = allow all).
	AllowedHosts []string

	// BlockPrivateIPs rejects loopback, RFC1918 and link-local targets,
	// including redirect targets.
	BlockPrivateIPs bool

	// MaxResponseSize limits the response body in bytes (0 = unlimited).
	MaxResponseSize int64
}

// HostPolicy returns the host restrictions of this config.
func (c *Config) HostPolicy() HostPolicy {
	return HostPolicy{
		AllowedHosts:    c.AllowedHosts,
		BlockPrivateIPs: c.BlockPrivateIPs,
	}
}

// DefaultConfig returns a config with default settings. Every host is
// allowed and responses are not size limited.
func DefaultConfig() *Config {
	return &Config{
		HTTPClient: httpclient.DefaultConfig(),
	}
}
