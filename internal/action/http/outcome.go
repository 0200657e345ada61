package http

// FailureMarker is the fixed text reported in place of the response headers
// when a dispatch fails. It is the same for every failure class.
const FailureMarker = "HTTP call was failed"

// RequestSpec describes one HTTP call.
type RequestSpec struct {
	// URL is the target. Required.
	URL string

	// Method is the raw verb; see ResolveMethod.
	Method string

	// Headers is accepted for compatibility with existing step definitions
	// but is not applied to the outbound request.
	Headers string

	// Body is sent for POST, PUT and PATCH only. Empty means an empty body.
	Body string
}

// ResponseResult holds the normalized response of a successful dispatch.
type ResponseResult struct {
	// Headers is the flattened header list, see FlattenHeaders.
	Headers string

	// Body is the full response body.
	Body string
}

// Outcome is the result of a dispatch: either Success with a ResponseResult
// or Failure carrying only the fixed FailureMarker on its outputs.
type Outcome struct {
	ok     bool
	result ResponseResult
	err    error
}

// Success returns a successful Outcome.
func Success(result ResponseResult) Outcome {
	return Outcome{ok: true, result: result}
}

// Failure returns a failed Outcome. err is kept for diagnostics only and is
// never part of the outputs.
func Failure(err error) Outcome {
	return Outcome{err: err}
}

// Succeeded reports whether the dispatch succeeded.
func (o Outcome) Succeeded() bool {
	return o.ok
}

// Result returns the response result and true on success.
func (o Outcome) Result() (ResponseResult, bool) {
	return o.result, o.ok
}

// Err returns the classified cause of a failure, or nil on success.
func (o Outcome) Err() error {
	return o.err
}

// Outputs returns the (response headers, response body) pair handed back to
// callers. On failure the headers carry FailureMarker and the body is empty.
func (o Outcome) Outputs() (responseHeaders, responseBody string) {
	if !o.ok {
		return FailureMarker, ""
	}
	return o.result.Headers, o.result.Body
}

// Label returns "success" or "failure".
func (o Outcome) Label() string {
	if o.ok {
		return "success"
	}
	return "failure"
}
