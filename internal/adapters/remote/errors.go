package remote

import (
	"errors"

	"github.com/okian/telcoguard/internal/domain/gateway"
)

// Sentinel error kinds for the remote prediction provider. The failure
// kinds are shared with the gateway so it can classify fallbacks.
var (
	ErrRemoteUnavailable       = gateway.ErrRemoteUnavailable
	ErrRemoteCallFailed        = gateway.ErrRemoteCallFailed
	ErrRemoteTimeout           = gateway.ErrRemoteTimeout
	ErrMalformedRemoteResponse = gateway.ErrMalformedRemoteResponse

	// ErrInvalidWire marks a request body that does not follow the wire contract.
	ErrInvalidWire = errors.New("invalid wire profile")
)
