package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// capturedRequest is what the test server saw.
type capturedRequest struct {
	Method      string
	Body        string
	ContentType string
	Header      http.Header
}

func newCaptureServer(t *testing.T, status int, respHeaders map[string]string, respBody string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []capturedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, capturedRequest{
			Method:      r.Method,
			Body:        string(body),
			ContentType: r.Header.Get("Content-Type"),
			Header:      r.Header.Clone(),
		})
		mu.Unlock()
		for k, v := range respHeaders {
			w.Header().Set(k, v)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

// countingDoer counts calls and fails them.
type countingDoer struct {
	calls      int
	idleCloses int
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, errors.New("should not be called")
}

func (d *countingDoer) CloseIdleConnections() {
	d.idleCloses++
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset mid-body")
}

type recordedDispatch struct {
	method  string
	outcome string
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedDispatch
}

func (r *fakeRecorder) RecordDispatch(_ context.Context, method, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedDispatch{method: method, outcome: outcome})
}

func newTestTracer(t *testing.T) (trace.Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test"), exporter
}

func TestDispatch_GetSuccess(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusOK, map[string]string{"X-Test": "yes"}, `{"ok":true}`)
	d := NewDispatcher(nil)

	outcome := d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})

	require.True(t, outcome.Succeeded(), "unexpected failure: %v", outcome.Err())
	headers, body := outcome.Outputs()
	assert.Equal(t, `{"ok":true}`, body)
	assert.Contains(t, headers, "X-Test:yes")
	assert.NotContains(t, headers, FailureMarker)

	require.Len(t, *seen, 1)
	assert.Equal(t, "GET", (*seen)[0].Method)
	assert.Empty(t, (*seen)[0].Body)
	assert.Empty(t, (*seen)[0].ContentType)
}

func TestDispatch_BodyOnlyForBodyMethods(t *testing.T) {
	tests := []struct {
		method     string
		wantBody   string
		wantJSONCT bool
	}{
		{"GET", "", false},
		{"DELETE", "", false},
		{"POST", `{"a":1}`, true},
		{"PUT", `{"a":1}`, true},
		{"PATCH", `{"a":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			server, seen := newCaptureServer(t, http.StatusOK, nil, "")
			d := NewDispatcher(nil)

			outcome := d.Dispatch(context.Background(), RequestSpec{
				URL:    server.URL,
				Method: tt.method,
				Body:   `{"a":1}`,
			})

			require.True(t, outcome.Succeeded(), "unexpected failure: %v", outcome.Err())
			require.Len(t, *seen, 1)
			got := (*seen)[0]
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.wantBody, got.Body)
			if tt.wantJSONCT {
				assert.Equal(t, "application/json", got.ContentType)
			} else {
				assert.Empty(t, got.ContentType)
			}
		})
	}
}

func TestDispatch_PostEmptyBody(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusCreated, nil, "created")
	d := NewDispatcher(nil)

	outcome := d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "POST"})

	require.True(t, outcome.Succeeded())
	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].Body)
	assert.Equal(t, "application/json", (*seen)[0].ContentType)
	_, body := outcome.Outputs()
	assert.Equal(t, "created", body)
}

func TestDispatch_UnsupportedMethodMakesNoRequest(t *testing.T) {
	for _, method := range []string{"HEAD", "get", "", "OPTIONS"} {
		t.Run(method, func(t *testing.T) {
			doer := &countingDoer{}
			d := NewDispatcher(doer)

			outcome := d.Dispatch(context.Background(), RequestSpec{URL: "http://example.invalid", Method: method})

			assert.False(t, outcome.Succeeded())
			assert.Equal(t, 0, doer.calls)
			assert.Equal(t, ClassUnsupportedMethod, ErrorClass(outcome.Err()))
			headers, body := outcome.Outputs()
			assert.Equal(t, FailureMarker, headers)
			assert.Empty(t, body)
		})
	}
}

func TestDispatch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusMovedPermanently, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server, _ := newCaptureServer(t, status, map[string]string{"X-Err": "1"}, "error details")
			d := NewDispatcher(&http.Client{
				CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
			})

			outcome := d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})

			require.False(t, outcome.Succeeded())
			headers, body := outcome.Outputs()
			assert.Equal(t, FailureMarker, headers)
			assert.Empty(t, body)

			var statusErr *StatusError
			require.ErrorAs(t, outcome.Err(), &statusErr)
			assert.Equal(t, status, statusErr.StatusCode)
		})
	}
}

func TestDispatch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	d := NewDispatcher(nil)
	outcome := d.Dispatch(context.Background(), RequestSpec{URL: url, Method: "GET"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, ClassTransport, ErrorClass(outcome.Err()))
	headers, _ := outcome.Outputs()
	assert.Equal(t, FailureMarker, headers)
}

func TestDispatch_InvalidURL(t *testing.T) {
	d := NewDispatcher(&countingDoer{})

	for _, url := range []string{"", "http://[::1", "://missing-scheme"} {
		outcome := d.Dispatch(context.Background(), RequestSpec{URL: url, Method: "GET"})
		assert.False(t, outcome.Succeeded(), "url %q", url)
		assert.Equal(t, ClassInvalidURL, ErrorClass(outcome.Err()), "url %q", url)
	}
}

func TestDispatch_BodyReadError(t *testing.T) {
	d := NewDispatcher(doerFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Header:     http.Header{"X-Partial": {"1"}},
			Body:       io.NopCloser(errReader{}),
		}, nil
	}))

	outcome := d.Dispatch(context.Background(), RequestSpec{URL: "http://example.invalid", Method: "GET"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, ClassBodyRead, ErrorClass(outcome.Err()))
	headers, body := outcome.Outputs()
	assert.Equal(t, FailureMarker, headers)
	assert.Empty(t, body)
}

func TestDispatch_PanicIsContained(t *testing.T) {
	d := NewDispatcher(doerFunc(func(*http.Request) (*http.Response, error) {
		panic("transport exploded")
	}))

	var outcome Outcome
	require.NotPanics(t, func() {
		outcome = d.Dispatch(context.Background(), RequestSpec{URL: "http://example.invalid", Method: "POST", Body: "{}"})
	})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, ClassPanic, ErrorClass(outcome.Err()))
	headers, _ := outcome.Outputs()
	assert.Equal(t, FailureMarker, headers)
}

type panickingRecorder struct{}

func (panickingRecorder) RecordDispatch(context.Context, string, string, time.Duration) {
	panic("recorder exploded")
}

type panickingTracer struct {
	trace.Tracer
}

func (panickingTracer) Start(context.Context, string, ...trace.SpanStartOption) (context.Context, trace.Span) {
	panic("tracer exploded")
}

type panickingHandler struct {
	slog.Handler
}

func (panickingHandler) Handle(context.Context, slog.Record) error {
	panic("handler exploded")
}

func (h panickingHandler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

func TestDispatch_PanickingCollaboratorsAreContained(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, nil, "ok")
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("recorder", func(t *testing.T) {
		d := NewDispatcher(nil, WithLogger(quiet), WithRecorder(panickingRecorder{}))

		var outcome Outcome
		require.NotPanics(t, func() {
			outcome = d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})
		})
		require.True(t, outcome.Succeeded(), "unexpected failure: %v", outcome.Err())
		_, body := outcome.Outputs()
		assert.Equal(t, "ok", body)
	})

	t.Run("tracer", func(t *testing.T) {
		d := NewDispatcher(nil, WithLogger(quiet), WithTracer(panickingTracer{}))

		var outcome Outcome
		require.NotPanics(t, func() {
			outcome = d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})
		})
		require.False(t, outcome.Succeeded())
		assert.Equal(t, ClassPanic, ErrorClass(outcome.Err()))
		headers, _ := outcome.Outputs()
		assert.Equal(t, FailureMarker, headers)
	})

	t.Run("logger", func(t *testing.T) {
		handler := panickingHandler{Handler: slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})}
		d := NewDispatcher(nil, WithLogger(slog.New(handler)))

		var outcome Outcome
		require.NotPanics(t, func() {
			outcome = d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})
		})
		require.False(t, outcome.Succeeded())
		assert.Equal(t, ClassPanic, ErrorClass(outcome.Err()))
	})
}

func TestDispatch_CancelledContext(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusOK, nil, "late")
	d := NewDispatcher(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := d.Dispatch(ctx, RequestSpec{URL: server.URL, Method: "GET"})

	require.False(t, outcome.Succeeded())
	assert.Equal(t, ClassTransport, ErrorClass(outcome.Err()))
	assert.ErrorIs(t, outcome.Err(), context.Canceled)
	assert.Empty(t, *seen)
}

func TestDispatch_HeadersInputIsIgnored(t *testing.T) {
	server, seen := newCaptureServer(t, http.StatusOK, nil, "")
	d := NewDispatcher(nil)

	outcome := d.Dispatch(context.Background(), RequestSpec{
		URL:     server.URL,
		Method:  "GET",
		Headers: "Authorization:Bearer secret;X-Custom:1",
	})

	require.True(t, outcome.Succeeded())
	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].Header.Get("Authorization"))
	assert.Empty(t, (*seen)[0].Header.Get("X-Custom"))
}

func TestDispatch_ClosesIdleConnections(t *testing.T) {
	doer := &countingDoer{}
	d := NewDispatcher(doer)

	d.Dispatch(context.Background(), RequestSpec{URL: "http://example.invalid", Method: "GET"})

	assert.Equal(t, 1, doer.idleCloses)
}

func TestDispatch_RecordsSpanAndMetrics(t *testing.T) {
	tracer, exporter := newTestTracer(t)
	recorder := &fakeRecorder{}
	server, _ := newCaptureServer(t, http.StatusOK, nil, "ok")
	failing, _ := newCaptureServer(t, http.StatusBadGateway, nil, "")

	d := NewDispatcher(nil, WithTracer(tracer), WithRecorder(recorder))

	d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})
	d.Dispatch(context.Background(), RequestSpec{URL: failing.URL, Method: "PUT", Body: "{}"})
	d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "TRACE"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	for _, span := range spans {
		assert.Equal(t, "http.dispatch", span.Name)
		assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	}
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, ClassStatus, spans[1].Status.Description)
	assert.Equal(t, codes.Error, spans[2].Status.Code)
	assert.Equal(t, ClassUnsupportedMethod, spans[2].Status.Description)

	assert.Equal(t, []recordedDispatch{
		{method: "GET", outcome: "success"},
		{method: "PUT", outcome: "failure"},
		{method: "UNSUPPORTED", outcome: "failure"},
	}, recorder.records)
}

func TestDispatch_LogsFailureClassWithoutLeakingIt(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	server, _ := newCaptureServer(t, http.StatusNotFound, nil, "")

	d := NewDispatcher(nil, WithLogger(logger))
	outcome := d.Dispatch(context.Background(), RequestSpec{URL: server.URL + "/?token=abc", Method: "GET"})

	headers, body := outcome.Outputs()
	assert.Equal(t, FailureMarker, headers)
	assert.Empty(t, body)

	logs := buf.String()
	assert.Contains(t, logs, "dispatch failed")
	assert.Contains(t, logs, "error_class=status")
	assert.NotContains(t, logs, "token=abc")
}

func TestDispatch_Concurrent(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusOK, nil, "ok")
	d := NewDispatcher(nil)

	var wg sync.WaitGroup
	results := make([]Outcome, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.Dispatch(context.Background(), RequestSpec{URL: server.URL, Method: "GET"})
		}(i)
	}
	wg.Wait()

	for i, o := range results {
		assert.True(t, o.Succeeded(), "dispatch %d failed: %v", i, o.Err())
	}
}
