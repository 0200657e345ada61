package http

import "net/http"

// MethodKind identifies a request method supported by the dispatcher.
type MethodKind int

const (
	MethodGet MethodKind = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodPatch

	// MethodUnsupported is returned for any verb outside the supported set.
	MethodUnsupported MethodKind = 999
)

// ResolveMethod maps a verb to its MethodKind. Matching is exact and
// case-sensitive: "get", "HEAD" and "" all resolve to MethodUnsupported.
// It never fails; rejecting an unsupported method is left to the Dispatcher.
func ResolveMethod(text string) MethodKind {
	switch text {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	case "PUT":
		return MethodPut
	case "DELETE":
		return MethodDelete
	case "PATCH":
		return MethodPatch
	default:
		return MethodUnsupported
	}
}

// String returns the wire verb, or "UNSUPPORTED".
func (k MethodKind) String() string {
	if m := k.HTTPMethod(); m != "" {
		return m
	}
	return "UNSUPPORTED"
}

// HTTPMethod returns the net/http method name, or "" for MethodUnsupported.
func (k MethodKind) HTTPMethod() string {
	switch k {
	case MethodGet:
		return http.MethodGet
	case MethodPost:
		return http.MethodPost
	case MethodPut:
		return http.MethodPut
	case MethodDelete:
		return http.MethodDelete
	case MethodPatch:
		return http.MethodPatch
	default:
		return ""
	}
}

// CarriesBody reports whether requests of this kind send the request body.
// GET and DELETE never do, whatever body text the caller supplied.
func (k MethodKind) CarriesBody() bool {
	return k == MethodPost || k == MethodPut || k == MethodPatch
}
