package httpclient

import (
	"fmt"
	"time"
)

// Config configures the HTTP client.
type Config struct {
	// Timeout bounds the whole request, including reading the body.
	// Default: 0 (no timeout). Must be >= 0.
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string `yaml:"user_agent"`

	// MaxRedirects limits redirect following. 0 disables redirects; the
	// redirect then fails the request.
	// Default: 10. Must be >= 0.
	MaxRedirects int `yaml:"max_redirects"`
}

// DefaultMaxRedirects is the number of redirects followed by default.
const DefaultMaxRedirects = 10

// DefaultUserAgent is the User-Agent sent when none is configured.
const DefaultUserAgent = "callout/1.0"

// DefaultConfig returns a Config with default settings.
func DefaultConfig() Config {
	return Config{
		Timeout:      0,
		UserAgent:    DefaultUserAgent,
		MaxRedirects: DefaultMaxRedirects,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	if c.MaxRedirects < 0 {
		return fmt.Errorf("max_redirects must be >= 0, got %d", c.MaxRedirects)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}

	return nil
}
