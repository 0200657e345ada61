package http

import (
	"context"
	"fmt"
	"time"

	"github.com/tombee/callout/pkg/httpclient"
)

// OperationCall is the only operation the HTTP action supports.
const OperationCall = "call"

// Result represents the output of an HTTP action operation.
type Result struct {
	Response interface{}
	Metadata map[string]interface{}
}

// Outputs reads the outcome of an OperationCall result. Missing or
// mistyped entries read as zero values.
func (r *Result) Outputs() (success bool, responseHeaders, responseBody string) {
	if r == nil {
		return false, "", ""
	}
	resp, _ := r.Response.(map[string]interface{})
	success, _ = resp["success"].(bool)
	responseHeaders, _ = resp["response_headers"].(string)
	responseBody, _ = resp["response_body"].(string)
	return success, responseHeaders, responseBody
}

// HTTPAction binds workflow step inputs to a Dispatcher.
type HTTPAction struct {
	config     *Config
	dispatcher *Dispatcher
}

// New creates a new HTTP action instance.
func New(config *Config) (*HTTPAction, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if config.MaxResponseSize < 0 {
		return nil, fmt.Errorf("max response size must be >= 0, got %d", config.MaxResponseSize)
	}
	policy := config.HostPolicy()

	client := config.Client
	if client == nil {
		httpCfg := config.HTTPClient
		if httpCfg.UserAgent == "" {
			httpCfg.UserAgent = httpclient.DefaultConfig().UserAgent
		}
		c, err := httpclient.New(httpCfg)
		if err != nil {
			return nil, fmt.Errorf("creating http client: %w", err)
		}
		if policy.Enabled() {
			c.CheckRedirect = policy.CheckRedirect(c.CheckRedirect)
		}
		client = c
	}

	dispatcher := NewDispatcher(client,
		WithLogger(config.Logger),
		WithTracer(config.Tracer),
		WithRecorder(config.Recorder),
		WithHostPolicy(policy),
		WithMaxResponseSize(config.MaxResponseSize),
	)

	return &HTTPAction{config: config, dispatcher: dispatcher}, nil
}

// Dispatcher returns the dispatcher backing this action.
func (a *HTTPAction) Dispatcher() *Dispatcher {
	return a.dispatcher
}

// Execute runs an HTTP action operation. It returns an error only when the
// inputs cannot be bound; the outcome of the HTTP call itself is always
// reported through the result.
func (a *HTTPAction) Execute(ctx context.Context, operation string, inputs map[string]interface{}) (*Result, error) {
	switch operation {
	case OperationCall:
		return a.call(ctx, inputs)
	default:
		return nil, fmt.Errorf("unknown http operation: %s", operation)
	}
}

func (a *HTTPAction) call(ctx context.Context, inputs map[string]interface{}) (*Result, error) {
	url, ok := inputs["url"].(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("url is required")
	}

	spec := RequestSpec{URL: url}
	var err error
	if spec.Method, err = optionalString(inputs, "method"); err != nil {
		return nil, err
	}
	if spec.Headers, err = optionalString(inputs, "headers"); err != nil {
		return nil, err
	}
	if spec.Body, err = optionalString(inputs, "body"); err != nil {
		return nil, err
	}

	start := time.Now()
	outcome := a.dispatcher.Dispatch(ctx, spec)
	headers, body := outcome.Outputs()

	return &Result{
		Response: map[string]interface{}{
			"response_headers": headers,
			"response_body":    body,
			"success":          outcome.Succeeded(),
		},
		Metadata: map[string]interface{}{
			"duration_ms": time.Since(start).Milliseconds(),
			"method":      ResolveMethod(spec.Method).String(),
		},
	}, nil
}

// optionalString reads a string input. A missing or nil input is "".
func optionalString(inputs map[string]interface{}, key string) (string, error) {
	v, ok := inputs[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
	return s, nil
}
