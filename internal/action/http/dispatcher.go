package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	calloutlog "github.com/tombee/callout/internal/log"
	"github.com/tombee/callout/pkg/httpclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tombee/callout/internal/action/http"

// Doer sends a single HTTP request. *http.Client satisfies it; tests inject
// doubles to observe or replace the network.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives one observation per finished dispatch.
type Recorder interface {
	RecordDispatch(ctx context.Context, method, outcome string, duration time.Duration)
}

// idleCloser is implemented by *http.Client.
type idleCloser interface {
	CloseIdleConnections()
}

// Dispatcher sends requests described by a RequestSpec and reduces every
// result to an Outcome. It holds no per-call state and is safe for
// concurrent use.
type Dispatcher struct {
	client          Doer
	logger          *slog.Logger
	tracer          trace.Tracer
	recorder        Recorder
	policy          HostPolicy
	maxResponseSize int64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTracer sets the tracer that records one client span per dispatch.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithHostPolicy restricts the hosts the dispatcher may contact.
func WithHostPolicy(p HostPolicy) DispatcherOption {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithMaxResponseSize caps the response body in bytes. Zero means no limit.
func WithMaxResponseSize(n int64) DispatcherOption {
	return func(d *Dispatcher) {
		d.maxResponseSize = n
	}
}

// NewDispatcher creates a Dispatcher sending through client. A nil client
// gets a private *http.Client with no timeout.
func NewDispatcher(client Doer, opts ...DispatcherOption) *Dispatcher {
	if client == nil {
		client = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
	}

	d := &Dispatcher{
		client: client,
		logger: slog.Default(),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch performs the call described by spec. It never panics and has no
// error return: every failure, including a cancelled ctx, becomes a Failure
// outcome whose outputs carry FailureMarker.
func (d *Dispatcher) Dispatch(ctx context.Context, spec RequestSpec) (outcome Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	kind := ResolveMethod(spec.Method)
	logURL := httpclient.SanitizeURL(spec.URL)
	span := trace.SpanFromContext(context.Background())
	logger := d.logger

	// Registered before any collaborator runs so that nothing escapes.
	defer func() {
		if r := recover(); r != nil {
			outcome = Failure(&PanicError{Value: r})
		}
		d.finish(ctx, span, logger, kind, outcome, time.Since(start))
	}()

	ctx, span = d.tracer.Start(ctx, "http.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", spec.Method),
			attribute.String("url.full", logURL),
		),
	)

	logger = d.logger.With("method", spec.Method, "url", logURL)
	logger.Debug("starting dispatch", "resolved_method", kind.String())

	// The connection belongs to this call only.
	if c, ok := d.client.(idleCloser); ok {
		defer c.CloseIdleConnections()
	}

	result, err := d.send(ctx, span, kind, spec)
	if err != nil {
		return Failure(err)
	}
	return Success(result)
}

// send builds and executes the request. Any error it returns is one of the
// typed errors in errors.go.
func (d *Dispatcher) send(ctx context.Context, span trace.Span, kind MethodKind, spec RequestSpec) (ResponseResult, error) {
	if kind == MethodUnsupported {
		return ResponseResult{}, &UnsupportedMethodError{Method: spec.Method}
	}
	if spec.URL == "" {
		return ResponseResult{}, &InvalidURLError{URL: spec.URL, Reason: "url is required"}
	}

	var body io.Reader
	if kind.CarriesBody() {
		body = strings.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, kind.HTTPMethod(), spec.URL, body)
	if err != nil {
		return ResponseResult{}, &InvalidURLError{URL: spec.URL, Reason: err.Error()}
	}
	if kind.CarriesBody() {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := d.policy.Check(ctx, req.URL); err != nil {
		return ResponseResult{}, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return ResponseResult{}, &TransportError{URL: spec.URL, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ResponseResult{}, &StatusError{URL: spec.URL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	headers := FlattenHeaders(HeaderFields(resp.Header))

	data, err := d.readBody(resp.Body)
	if err != nil {
		return ResponseResult{}, &BodyReadError{URL: spec.URL, Err: err}
	}

	calloutlog.Trace(ctx, d.logger, "response received",
		slog.Int("status", resp.StatusCode),
		slog.String("headers", headers),
		slog.String("body", string(data)),
	)

	return ResponseResult{Headers: headers, Body: string(data)}, nil
}

// readBody reads the whole body, honouring maxResponseSize.
func (d *Dispatcher) readBody(r io.Reader) ([]byte, error) {
	if d.maxResponseSize <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, d.maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > d.maxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// finish emits the diagnostics for a completed dispatch and ends the span.
// The error detail recorded here is never returned to the caller, and a
// panicking logger, span or recorder is swallowed.
func (d *Dispatcher) finish(ctx context.Context, span trace.Span, logger *slog.Logger, kind MethodKind, outcome Outcome, elapsed time.Duration) {
	defer func() { _ = recover() }()
	defer span.End()

	durationMs := elapsed.Milliseconds()

	if err := outcome.Err(); err != nil {
		class := ErrorClass(err)
		span.RecordError(err, trace.WithAttributes(attribute.String("error.type", class)))
		span.SetStatus(codes.Error, class)
		logger.Warn("dispatch failed",
			"error", err.Error(),
			"error_class", class,
			"duration_ms", durationMs,
		)
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Debug("dispatch finished",
			"outcome", outcome.Label(),
			"duration_ms", durationMs,
		)
	}

	if d.recorder != nil {
		d.recorder.RecordDispatch(ctx, kind.String(), outcome.Label(), elapsed)
	}
}
