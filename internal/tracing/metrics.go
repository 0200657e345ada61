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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records dispatch metrics.
type MetricsCollector struct {
	dispatchTotal    metric.Int64Counter
	dispatchDuration metric.Float64Histogram
}

// NewMetricsCollector creates a new metrics collector using the given meter provider.
func NewMetricsCollector(meterProvider metric.MeterProvider) (*MetricsCollector, error) {
	meter := meterProvider.Meter("callout")

	dispatchTotal, err := meter.Int64Counter(
		"callout_dispatch_total",
		metric.WithDescription("Total number of HTTP dispatches"),
		metric.WithUnit("{dispatch}"),
	)
	if err != nil {
		return nil, err
	}

	dispatchDuration, err := meter.Float64Histogram(
		"callout_dispatch_duration_seconds",
		metric.WithDescription("HTTP dispatch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MetricsCollector{
		dispatchTotal:    dispatchTotal,
		dispatchDuration: dispatchDuration,
	}, nil
}

// RecordDispatch records one finished dispatch.
func (mc *MetricsCollector) RecordDispatch(ctx context.Context, method, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	)
	mc.dispatchTotal.Add(ctx, 1, attrs)
	mc.dispatchDuration.Record(ctx, duration.Seconds(), attrs)
}
