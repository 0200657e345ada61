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

// Package tracing provides correlation IDs, OpenTelemetry tracing and
// dispatch metrics for callout.
//
// # Correlation IDs
//
// Every dispatch served by callout can be tied back to the workflow run that
// asked for it through an X-Correlation-ID header. CorrelationMiddleware
// accepts or generates the ID on inbound requests and stores it in the
// request context; the HTTP client propagates it on outbound calls.
//
// # Spans
//
// NewProvider installs an SDK tracer provider as the global provider. The
// dispatcher opens one client span per call and records the classified
// failure cause on it, which is where the error detail hidden from the
// dispatch outputs ends up.
//
// Exporters are chosen per configuration:
//   - console: pretty-printed spans on stdout (stdouttrace)
//   - otlp: OTLP over gRPC (otlptracegrpc)
//   - otlp-http: OTLP over HTTP (otlptracehttp)
//
// # Metrics
//
// MetricsCollector records callout_dispatch_total and
// callout_dispatch_duration_seconds, labelled by method and outcome. The
// provider exposes them in Prometheus text format through MetricsHandler.
package tracing
