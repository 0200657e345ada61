package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&UnsupportedMethodError{Method: "HEAD"}, ClassUnsupportedMethod},
		{&InvalidURLError{URL: "::", Reason: "bad"}, ClassInvalidURL},
		{&TransportError{URL: "http://x", Err: context.Canceled}, ClassTransport},
		{&StatusError{URL: "http://x", StatusCode: 404}, ClassStatus},
		{&BodyReadError{URL: "http://x", Err: errors.New("eof")}, ClassBodyRead},
		{&PanicError{Value: 1}, ClassPanic},
		{fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 502}), ClassStatus},
		{errors.New("other"), ClassUnknown},
	}

	for _, tt := range tests {
		if got := ErrorClass(tt.err); got != tt.want {
			t.Errorf("ErrorClass(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := &TransportError{URL: "http://x", Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is to match the wrapped cause")
	}
}
