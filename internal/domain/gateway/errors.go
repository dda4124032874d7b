package gateway

import "errors"

// Remote failure kinds. The remote adapter wraps its errors with these and
// the gateway maps them to fallback reasons. None of them reach callers of
// Predict.
var (
	// ErrRemoteUnavailable marks a failed liveness probe.
	ErrRemoteUnavailable = errors.New("remote provider unavailable")
	// ErrRemoteCallFailed marks a transport failure or non-2xx answer to a prediction call.
	ErrRemoteCallFailed = errors.New("remote call failed")
	// ErrRemoteTimeout is joined with ErrRemoteCallFailed when the call ran out of time.
	ErrRemoteTimeout = errors.New("remote call timed out")
	// ErrMalformedRemoteResponse marks a 2xx answer missing required fields.
	ErrMalformedRemoteResponse = errors.New("malformed remote response")
)

// Fallback reasons recorded on locally served results.
const (
	ReasonDisabled          = "disabled"
	ReasonUnavailable       = "unavailable"
	ReasonCallFailed        = "call_failed"
	ReasonTimeout           = "timeout"
	ReasonMalformedResponse = "malformed_response"
)

// reasonFor classifies a remote prediction error.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, ErrRemoteTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrMalformedRemoteResponse):
		return ReasonMalformedResponse
	default:
		return ReasonCallFailed
	}
}
