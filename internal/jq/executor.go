// Package jq projects JSON response bodies with jq expressions.
package jq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout is the default execution time for jq expressions (1 second)
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize is the default maximum body size accepted (10MB)
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// ErrNotJSON is returned when the body to query is not valid JSON.
var ErrNotJSON = errors.New("response body is not valid JSON")

// Executor evaluates jq expressions with timeout and size limits.
type Executor struct {
	timeout      time.Duration
	maxInputSize int64
}

// NewExecutor creates a new jq executor. Zero values select the defaults.
func NewExecutor(timeout time.Duration, maxInputSize int64) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if maxInputSize == 0 {
		maxInputSize = DefaultMaxInputSize
	}

	return &Executor{
		timeout:      timeout,
		maxInputSize: maxInputSize,
	}
}

// Compile parses and compiles expression.
func (e *Executor) Compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return code, nil
}

// Execute runs expression against data and returns every emitted value.
func (e *Executor) Execute(ctx context.Context, expression string, data interface{}) ([]interface{}, error) {
	code, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var results []interface{}
	iter := code.RunWithContext(execCtx, data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("execution timeout after %v", e.timeout)
			}
			return nil, err
		}
		results = append(results, v)
	}

	return results, nil
}

// QueryBody decodes body as JSON, applies expression and renders the results
// one per line. String results are printed raw; other values as compact JSON.
// An empty expression returns body unchanged.
func (e *Executor) QueryBody(ctx context.Context, expression, body string) (string, error) {
	if expression == "" {
		return body, nil
	}

	if int64(len(body)) > e.maxInputSize {
		return "", fmt.Errorf("body size (%d bytes) exceeds maximum (%d bytes)", len(body), e.maxInputSize)
	}

	var data interface{}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	data = normalizeNumbers(data)

	results, err := e.Execute(ctx, expression, data)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(results))
	for _, v := range results {
		if s, ok := v.(string); ok {
			lines = append(lines, s)
			continue
		}
		out, err := gojq.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("rendering result: %w", err)
		}
		lines = append(lines, string(out))
	}
	return strings.Join(lines, "\n"), nil
}

// normalizeNumbers converts json.Number values into the int and float64
// values gojq operates on.
func normalizeNumbers(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	case map[string]interface{}:
		for k, val := range x {
			x[k] = normalizeNumbers(val)
		}
		return x
	case []interface{}:
		for i, val := range x {
			x[i] = normalizeNumbers(val)
		}
		return x
	default:
		return v
	}
}
