package http

import (
	"errors"
	"fmt"
)

// Error types for dispatch failures. None of them ever reaches the caller of
// Dispatch as an error value; they are carried on the Outcome for diagnostics.

// UnsupportedMethodError is returned when the verb did not resolve to a
// supported method. No network activity happens in that case.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported method %q: use GET, POST, PUT, DELETE or PATCH", e.Method)
}

// InvalidURLError represents a URL the request could not be built from.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.URL, e.Reason)
}

// BlockedHostError is returned when the host policy rejects the target.
// A rejected initial target makes no request.
type BlockedHostError struct {
	Host   string
	Reason string
}

func (e *BlockedHostError) Error() string {
	return fmt.Sprintf("host %q is blocked: %s", e.Host, e.Reason)
}

// ErrResponseTooLarge is wrapped by a BodyReadError when the response body
// exceeds the configured limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// TransportError represents a failure of the exchange itself: DNS, connect,
// TLS, timeout or cancellation.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError represents a response whose status is outside 200-299.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s returned non-success status %s", e.URL, e.Status)
}

// BodyReadError represents a response whose body could not be read fully.
type BodyReadError struct {
	URL string
	Err error
}

func (e *BodyReadError) Error() string {
	return fmt.Sprintf("reading response body from %s: %v", e.URL, e.Err)
}

func (e *BodyReadError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic recovered inside the dispatch boundary.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch panicked: %v", e.Value)
}

// Failure classes used as the "error_class" log field and metric label.
const (
	ClassUnsupportedMethod = "unsupported_method"
	ClassInvalidURL        = "invalid_url"
	ClassBlockedHost       = "blocked_host"
	ClassTransport         = "transport"
	ClassStatus            = "status"
	ClassBodyRead          = "body_read"
	ClassPanic             = "panic"
	ClassUnknown           = "unknown"
)

// ErrorClass classifies a dispatch error. It returns "" for a nil error.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}

	var (
		unsupported *UnsupportedMethodError
		invalidURL  *InvalidURLError
		blocked     *BlockedHostError
		transport   *TransportError
		status      *StatusError
		bodyRead    *BodyReadError
		panicked    *PanicError
	)

	// A redirect rejected by the host policy arrives wrapped in a
	// TransportError, so blocked hosts are matched first.
	switch {
	case errors.As(err, &blocked):
		return ClassBlockedHost
	case errors.As(err, &unsupported):
		return ClassUnsupportedMethod
	case errors.As(err, &invalidURL):
		return ClassInvalidURL
	case errors.As(err, &transport):
		return ClassTransport
	case errors.As(err, &status):
		return ClassStatus
	case errors.As(err, &bodyRead):
		return ClassBodyRead
	case errors.As(err, &panicked):
		return ClassPanic
	default:
		return ClassUnknown
	}
}
