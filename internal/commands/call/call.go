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

// Package call implements `callout call`, a one-shot dispatch from flags or
// a YAML step file.
package call

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	httpaction "github.com/tombee/callout/internal/action/http"
	"github.com/tombee/callout/internal/cli/format"
	"github.com/tombee/callout/internal/commands/shared"
	"github.com/tombee/callout/internal/jq"
	callouterrors "github.com/tombee/callout/pkg/errors"
)

// Step is the YAML step file format. It mirrors the dispatcher inputs.
type Step struct {
	URL     string `yaml:"url"`
	Method  string `yaml:"method"`
	Headers string `yaml:"headers"`
	Body    string `yaml:"body"`
}

// Output is printed with --json.
type Output struct {
	Success         bool   `json:"success"`
	ResponseHeaders string `json:"response_headers"`
	ResponseBody    string `json:"response_body"`
	QueryResult     string `json:"query_result,omitempty"`
}

type options struct {
	url      string
	method   string
	headers  []string
	body     string
	bodyFile string
	stepFile string
	query    string
	format   string
	timeout  time.Duration
}

// NewCommand creates the call command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Send one HTTP request and print its outputs",
		Long: `Send one HTTP request and print the response headers and body.

Supported methods are GET, POST, PUT, DELETE and PATCH (case-sensitive).
A body is only sent for POST, PUT and PATCH, as application/json.
Any failure prints "HTTP call was failed" and exits 1.

Request headers are accepted for compatibility but are not sent.`,
		Example: `  callout call --url https://api.example.com/items
  callout call --url https://api.example.com/items --method POST --body '{"name":"x"}'
  callout call --file step.yaml --query '.items[].id'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "Target URL")
	f.StringVarP(&opts.method, "method", "X", "GET", "HTTP method: GET, POST, PUT, DELETE or PATCH")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as key:value (accepted, not sent)")
	f.StringVarP(&opts.body, "body", "d", "", "Request body (POST, PUT and PATCH only)")
	f.StringVar(&opts.bodyFile, "body-file", "", "Read the request body from a file")
	f.StringVarP(&opts.stepFile, "file", "f", "", "YAML step file with url, method, headers and body")
	f.StringVar(&opts.query, "query", "", "jq expression applied to a JSON response body")
	f.StringVar(&opts.format, "format", format.ModeAuto, "Body display: auto, raw, json or markdown")
	f.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default: config http.timeout, 0 = none)")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	step, err := resolveStep(cmd, opts)
	if err != nil {
		return err
	}

	if !format.ValidMode(opts.format) {
		return shared.NewInvalidInputError(fmt.Sprintf("invalid --format %q", opts.format), nil)
	}

	var executor *jq.Executor
	if opts.query != "" {
		executor = jq.NewExecutor(0, 0)
		if _, err := executor.Compile(opts.query); err != nil {
			return shared.NewInvalidInputError("invalid --query", err)
		}
	}

	rt, err := shared.LoadRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	if cmd.Flags().Changed("timeout") {
		if opts.timeout < 0 {
			return shared.NewInvalidInputError("--timeout must be >= 0", nil)
		}
		rt.Config.HTTP.Timeout = opts.timeout
	}

	action, err := rt.NewAction()
	if err != nil {
		return err
	}

	if step.Headers != "" {
		rt.Logger.Debug("request headers are not sent", "headers", step.Headers)
	}

	outcome := action.Dispatcher().Dispatch(ctx, httpaction.RequestSpec{
		URL:     step.URL,
		Method:  step.Method,
		Headers: step.Headers,
		Body:    step.Body,
	})

	headers, body := outcome.Outputs()
	out := Output{
		Success:         outcome.Succeeded(),
		ResponseHeaders: headers,
		ResponseBody:    body,
	}

	if outcome.Succeeded() && executor != nil {
		result, err := executor.QueryBody(ctx, opts.query, body)
		if err != nil {
			return shared.NewInvalidInputError("--query failed", err)
		}
		out.QueryResult = result
	}

	if err := render(cmd.OutOrStdout(), out, opts); err != nil {
		return err
	}

	if !outcome.Succeeded() {
		return shared.NewDispatchFailedError("")
	}
	return nil
}

// resolveStep merges the step file with explicitly set flags. Flags win.
func resolveStep(cmd *cobra.Command, opts *options) (Step, error) {
	var step Step
	flags := cmd.Flags()

	if opts.stepFile != "" {
		loaded, err := LoadStep(opts.stepFile)
		if err != nil {
			return Step{}, shared.NewInvalidInputError("failed to load step file", err)
		}
		step = loaded
		if flags.Changed("method") {
			step.Method = opts.method
		}
	} else {
		step.Method = opts.method
	}

	if flags.Changed("url") {
		step.URL = opts.url
	}
	if flags.Changed("header") {
		step.Headers = JoinHeaders(opts.headers)
	}
	if flags.Changed("body") {
		step.Body = opts.body
	}
	if opts.bodyFile != "" {
		data, err := os.ReadFile(opts.bodyFile)
		if err != nil {
			return Step{}, shared.NewInvalidInputError("failed to read --body-file", err)
		}
		step.Body = string(data)
	}

	if step.URL == "" {
		return Step{}, shared.NewInvalidInputError("missing url", &callouterrors.ValidationError{
			Field:          "url",
			Message:        "is required",
			SuggestionText: "Pass --url or set url in the step file",
		})
	}

	return step, nil
}

// LoadStep reads a YAML step file.
func LoadStep(path string) (Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Step{}, err
	}

	var step Step
	if err := yaml.Unmarshal(data, &step); err != nil {
		return Step{}, callouterrors.Wrapf(err, "parsing %s", path)
	}
	return step, nil
}

// JoinHeaders joins repeated --header values as "k1:v1;k2:v2".
func JoinHeaders(values []string) string {
	fields := make([]httpaction.HeaderField, 0, len(values))
	for _, v := range values {
		key, value, _ := strings.Cut(v, ":")
		fields = append(fields, httpaction.HeaderField{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	return httpaction.FlattenHeaders(fields)
}

func render(w io.Writer, out Output, opts *options) error {
	if shared.GetJSON() {
		return shared.EmitJSON(w, out)
	}

	style := shared.StylerFor(w)

	if !out.Success {
		fmt.Fprintln(w, style.Error(out.ResponseHeaders))
		return nil
	}

	if opts.query != "" {
		fmt.Fprintln(w, out.QueryResult)
		return nil
	}

	if shared.GetQuiet() {
		fmt.Fprint(w, out.ResponseBody)
		return nil
	}

	body, err := format.Body(out.ResponseBody, opts.format, style.Color)
	if err != nil {
		return shared.NewInvalidInputError("failed to format body", err)
	}

	fmt.Fprintln(w, style.OK("HTTP call succeeded"))
	fmt.Fprintln(w, style.Label("headers:"), out.ResponseHeaders)
	fmt.Fprintln(w, style.Header("body:"))
	fmt.Fprintln(w, body)
	return nil
}
