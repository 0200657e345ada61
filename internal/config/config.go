// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads callout's YAML configuration file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	calloutlog "github.com/tombee/callout/internal/log"
	"github.com/tombee/callout/internal/tracing"
	callouterrors "github.com/tombee/callout/pkg/errors"
	"github.com/tombee/callout/pkg/httpclient"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete callout configuration.
type Config struct {
	Log           LogConfig           `yaml:"log"`
	HTTP          HTTPConfig          `yaml:"http"`
	Server        ServerConfig        `yaml:"server"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	AddSource bool `yaml:"add_source"`
}

// HTTPConfig configures outbound calls: the client settings plus the host
// restrictions applied before each call.
type HTTPConfig struct {
	httpclient.Config `yaml:",inline"`

	// AllowedHosts restricts which hosts can be contacted (empty = allow all).
	AllowedHosts []string `yaml:"allowed_hosts,omitempty"`

	// BlockPrivateIPs rejects loopback, private and link-local targets.
	BlockPrivateIPs bool `yaml:"block_private_ips"`

	// MaxResponseSize limits the response body in bytes (0 = unlimited).
	MaxResponseSize int64 `yaml:"max_response_size"`
}

// ServerConfig configures `callout serve`.
type ServerConfig struct {
	// Listen is the TCP address to bind.
	Listen string `yaml:"listen"`

	// RateLimit is the sustained number of dispatch requests per second.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token bucket size.
	RateBurst int `yaml:"rate_burst"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ObservabilityConfig configures tracing and span export.
type ObservabilityConfig struct {
	Tracing   TracingConfig            `yaml:"tracing"`
	Exporters []tracing.ExporterConfig `yaml:"exporters,omitempty"`
}

// TracingConfig controls span sampling.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Config: httpclient.DefaultConfig(),
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8080",
			RateLimit:       20,
			RateBurst:       40,
			ShutdownTimeout: 10 * time.Second,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:     false,
				ServiceName: "callout",
				SampleRate:  1.0,
			},
		},
	}
}

// Load reads configuration from configPath, applies environment overrides
// and validates the result. An empty configPath uses the default location;
// a missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		p, err := ConfigPath()
		if err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			if !errors.Is(err, os.ErrNotExist) || explicit {
				return nil, &callouterrors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("failed to load from %s", configPath),
					Cause:  err,
				}
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &callouterrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyDefaults fills zero values so that partial files stay valid.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaults.HTTP.UserAgent
	}
	if c.Server.Listen == "" {
		c.Server.Listen = defaults.Server.Listen
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = defaults.Server.RateBurst
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = defaults.Observability.Tracing.ServiceName
	}
}

// loadFromEnv applies CALLOUT_* overrides.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("CALLOUT_HTTP_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &callouterrors.ConfigError{
				Key:    "CALLOUT_HTTP_TIMEOUT",
				Reason: fmt.Sprintf("invalid duration %q", val),
				Cause:  err,
			}
		}
		c.HTTP.Timeout = d
	}

	if val := os.Getenv("CALLOUT_LISTEN"); val != "" {
		c.Server.Listen = val
	}

	if val := os.Getenv("CALLOUT_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}

	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !calloutlog.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	if c.Log.Format != string(calloutlog.FormatJSON) && c.Log.Format != string(calloutlog.FormatText) {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, "http: "+err.Error())
	}
	if c.HTTP.MaxResponseSize < 0 {
		errs = append(errs, fmt.Sprintf("http.max_response_size must be >= 0, got %d", c.HTTP.MaxResponseSize))
	}
	for _, h := range c.HTTP.AllowedHosts {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, "http.allowed_hosts must not contain empty entries")
			break
		}
	}

	if c.Server.Listen == "" {
		errs = append(errs, "server.listen is required")
	}
	if c.Server.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("server.rate_limit must be positive, got %v", c.Server.RateLimit))
	}
	if c.Server.RateBurst <= 0 {
		errs = append(errs, fmt.Sprintf("server.rate_burst must be positive, got %d", c.Server.RateBurst))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout))
	}

	tc := c.TracingConfig()
	if err := tc.Validate(); err != nil {
		errs = append(errs, "observability: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}
	return nil
}

// LoggerConfig converts the log section into a log.Config writing to stderr.
func (c *Config) LoggerConfig() *calloutlog.Config {
	cfg := calloutlog.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Format = calloutlog.Format(c.Log.Format)
	cfg.AddSource = c.Log.AddSource
	return cfg
}

// TracingConfig converts the observability section into a tracing.Config.
func (c *Config) TracingConfig() tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = c.Observability.Tracing.Enabled
	cfg.ServiceName = c.Observability.Tracing.ServiceName
	cfg.SampleRate = c.Observability.Tracing.SampleRate
	cfg.Exporters = c.Observability.Exporters
	return cfg
}
