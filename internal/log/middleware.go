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

package log

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/callout/internal/tracing"
)

// responseRecorder captures the status code written by a handler.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware logs each request when it arrives and when it completes.
// Requests answered with 5xx are logged at error level, 4xx at warn.
func HTTPMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			attrs := []any{
				MethodKey, r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
			}
			if id := tracing.FromContextOrEmpty(r.Context()); id != "" {
				attrs = append(attrs, CorrelationIDKey, id.String())
			}

			logger.Debug("http request received", attrs...)

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs = append(attrs,
				"status", rec.status,
				DurationKey, time.Since(start).Milliseconds(),
			)

			level := slog.LevelInfo
			message := "http request completed"
			switch {
			case rec.status >= 500:
				level = slog.LevelError
				message = "http request failed"
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, message, attrs...)
		})
	}
}
