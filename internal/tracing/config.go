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

package tracing

import (
	"fmt"
	"time"
)

// Exporter types.
const (
	ExporterConsole  = "console"
	ExporterOTLP     = "otlp"
	ExporterOTLPHTTP = "otlp-http"
	ExporterNone     = "none"
)

// Config holds observability configuration.
type Config struct {
	// Enabled controls whether spans are recorded and exported.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this service in traces.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is the application version.
	ServiceVersion string `yaml:"service_version,omitempty"`

	// SampleRate is the fraction of root traces to record (0.0 - 1.0).
	SampleRate float64 `yaml:"sample_rate"`

	// Exporters configures span export destinations.
	Exporters []ExporterConfig `yaml:"exporters,omitempty"`

	// BatchInterval is how often to flush spans (default: 5s).
	BatchInterval time.Duration `yaml:"batch_interval,omitempty"`
}

// ExporterConfig defines a span export destination.
type ExporterConfig struct {
	// Type is the exporter type: "console", "otlp", "otlp-http" or "none".
	Type string `yaml:"type"`

	// Endpoint is the receiver address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends spans without TLS.
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are additional headers sent with each export.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// DefaultConfig returns configuration with tracing disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "callout",
		ServiceVersion: "unknown",
		SampleRate:     1.0,
		BatchInterval:  5 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0 and 1, got %v", c.SampleRate)
	}
	if c.BatchInterval < 0 {
		return fmt.Errorf("batch_interval must be >= 0, got %v", c.BatchInterval)
	}
	for i, exp := range c.Exporters {
		switch exp.Type {
		case ExporterConsole, ExporterNone, "":
		case ExporterOTLP, ExporterOTLPHTTP:
			if exp.Endpoint == "" {
				return fmt.Errorf("exporters[%d]: endpoint is required for %s", i, exp.Type)
			}
		default:
			return fmt.Errorf("exporters[%d]: unknown exporter type %q", i, exp.Type)
		}
	}
	return nil
}
