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

package shared

import (
	"context"
	"io"
	"log/slog"

	httpaction "github.com/tombee/callout/internal/action/http"
	"github.com/tombee/callout/internal/config"
	calloutlog "github.com/tombee/callout/internal/log"
	"github.com/tombee/callout/internal/tracing"
)

const instrumentationName = "github.com/tombee/callout"

// Runtime bundles what every command needs: loaded config, a logger and
// the observability provider.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Provider *tracing.Provider
}

// LoadRuntime loads the config named by --config and builds the logger and
// observability provider. Log output goes to logOut. --verbose lowers the
// level to debug; --quiet raises it to error.
func LoadRuntime(ctx context.Context, logOut io.Writer) (*Runtime, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load config", err)
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Output = logOut
	switch {
	case GetVerbose():
		logCfg.Level = "debug"
	case GetQuiet():
		logCfg.Level = "error"
	}
	logger := calloutlog.New(logCfg)
	slog.SetDefault(logger)

	tc := cfg.TracingConfig()
	tc.ServiceVersion = version
	provider, err := tracing.NewProvider(ctx, tc, tracing.WithConsoleWriter(logOut))
	if err != nil {
		return nil, NewConfigError("failed to initialize observability", err)
	}

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
	}, nil
}

// NewAction builds the HTTP action wired to the runtime's logger, tracer
// and metrics.
func (r *Runtime) NewAction() (*httpaction.HTTPAction, error) {
	action, err := httpaction.New(&httpaction.Config{
		HTTPClient:      r.Config.HTTP.Config,
		Logger:          calloutlog.WithComponent(r.Logger, "dispatcher"),
		Tracer:          r.Provider.Tracer(instrumentationName),
		Recorder:        r.Provider.Metrics(),
		AllowedHosts:    r.Config.HTTP.AllowedHosts,
		BlockPrivateIPs: r.Config.HTTP.BlockPrivateIPs,
		MaxResponseSize: r.Config.HTTP.MaxResponseSize,
	})
	if err != nil {
		return nil, NewConfigError("failed to create http client", err)
	}
	return action, nil
}

// Close flushes pending telemetry.
func (r *Runtime) Close(ctx context.Context) {
	if err := r.Provider.Shutdown(ctx); err != nil {
		r.Logger.Warn("telemetry shutdown failed", calloutlog.Error(err))
	}
}
