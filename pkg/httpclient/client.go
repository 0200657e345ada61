package httpclient

import (
	"fmt"
	"net/http"
)

// New creates a new HTTP client with the given configuration.
//
// The transport is a clone of http.DefaultTransport wrapped with the logging
// transport. No retry layer is installed: a failed request fails once.
//
// Returns an error if the configuration is invalid.
func New(cfg Config) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()

	return &http.Client{
		Transport:     newLoggingTransport(base, cfg.UserAgent),
		Timeout:       cfg.Timeout,
		CheckRedirect: redirectLimit(cfg.MaxRedirects),
	}, nil
}

func redirectLimit(max int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) > max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}
