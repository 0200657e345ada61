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

// Package serve implements `callout serve`, the HTTP dispatch API.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tombee/callout/internal/commands/shared"
	"github.com/tombee/callout/internal/commands/version"
	"github.com/tombee/callout/internal/server"
)

// NewCommand creates the serve command.
func NewCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dispatch API over HTTP",
		Long: `Serve POST /v1/dispatch for remote workflow engines, plus
GET /health, GET /version and GET /metrics.

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := shared.LoadRuntime(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			if cmd.Flags().Changed("listen") {
				rt.Config.Server.Listen = listen
			}

			action, err := rt.NewAction()
			if err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Listen:    rt.Config.Server.Listen,
				RateLimit: rt.Config.Server.RateLimit,
				RateBurst: rt.Config.Server.RateBurst,
				Action:    action,
				Metrics:   rt.Provider.MetricsHandler(),
				Tracer:    rt.Provider.Tracer("github.com/tombee/callout/internal/server"),
				Logger:    rt.Logger,
				Version:   version.Info(),
			})
			if err != nil {
				return err
			}

			return srv.Run(ctx, rt.Config.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default: config server.listen)")

	return cmd
}
