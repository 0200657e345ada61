// Package httpclient builds the *http.Client used to dispatch workflow
// HTTP calls.
//
// The client wraps a clone of http.DefaultTransport with a logging layer
// that:
//   - logs each request with method, sanitized URL, status and duration
//   - sets a User-Agent header when the request has none
//   - propagates the correlation ID found in the request context
//
// # Usage
//
//	client, err := httpclient.New(httpclient.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Do(req)
//
// # Timeouts
//
// DefaultConfig sets no client timeout, so a request is bounded only by its
// context and the transport's own dial defaults. Set Config.Timeout to bound
// the whole exchange.
//
// # Logging
//
// Requests are logged via log/slog:
//   - Debug level: responses with status < 400
//   - Warn level: responses with status >= 400 and transport errors
//   - Fields: method, url (sanitized), status, duration_ms, error
//
// Sensitive query parameters (api_key, token, password, ...) and URL
// passwords are replaced with [REDACTED] before logging.
package httpclient
