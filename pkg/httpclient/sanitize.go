package httpclient

import (
	"net/url"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveParams contains query parameter names that should be redacted from logs.
// These are matched case-insensitively as substrings.
var sensitiveParams = []string{
	"api_key",
	"apikey",
	"token",
	"password",
	"auth",
	"secret",
	"key",
	"credential",
	"sig",
}

// SanitizeURL returns raw with sensitive query parameters and any URL
// password redacted. Input that does not parse is returned unchanged.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return sanitizeURL(u)
}

func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	safe := *u

	if _, hasPassword := u.User.Password(); hasPassword {
		safe.User = url.UserPassword(u.User.Username(), redacted)
	}

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			if isSensitiveParam(param) {
				q.Set(param, redacted)
			}
		}
		safe.RawQuery = q.Encode()
	}

	return safe.String()
}

func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
