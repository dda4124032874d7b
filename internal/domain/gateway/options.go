package gateway

import (
	"time"

	"github.com/okian/telcoguard/pkg/logger"
)

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithRemote sets the primary provider. A nil remote leaves the gateway
// in local-only mode.
func WithRemote(r Remote) Option {
	return func(g *Gateway) {
		if r != nil {
			g.remote = r
		}
	}
}

// WithProbeInterval enables periodic re-probing. Zero disables it.
func WithProbeInterval(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides the time source used for probe timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}
