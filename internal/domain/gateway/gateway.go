// Package gateway routes churn predictions to a remote provider when it is
// known to be available and falls back to the local engine otherwise.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/internal/domain/scoring"
	"github.com/okian/telcoguard/pkg/logger"
	"github.com/okian/telcoguard/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// State is the cached availability of the remote provider.
type State int

const (
	StateUnknown State = iota
	StateProbing
	StateAvailable
	StateUnavailable
)

var stateNames = [...]string{"unknown", "probing", "available", "unavailable"}

func (s State) String() string {
	if s < StateUnknown || s > StateUnavailable {
		return "invalid"
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON bodies.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s State) gauge() int {
	switch s {
	case StateProbing:
		return metrics.GatewayStateProbing
	case StateAvailable:
		return metrics.GatewayStateAvailable
	case StateUnavailable:
		return metrics.GatewayStateUnavailable
	default:
		return metrics.GatewayStateUnknown
	}
}

// Remote is the primary provider. Ping returns nil only when the provider
// reports itself ready.
type Remote interface {
	scoring.Provider
	Ping(ctx context.Context) error
	Endpoint() string
}

// Status is a point-in-time view of the gateway for operators.
type Status struct {
	State     State     `json:"state"`
	Enabled   bool      `json:"remote_enabled"`
	Endpoint  string    `json:"remote_url,omitempty"`
	LastProbe time.Time `json:"last_probe_at"`
	LastError string    `json:"last_error,omitempty"`
	Probes    int64     `json:"probes"`
}

// Gateway chooses between the remote provider and the local fallback.
// Predict only reads the cached state; probes are the only writers.
type Gateway struct {
	remote   Remote
	local    *scoring.LocalProvider
	interval time.Duration
	logger   logger.Logger
	now      func() time.Time

	mu        sync.RWMutex
	state     State
	lastProbe time.Time
	lastError string
	probes    int64

	group singleflight.Group
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// New creates a gateway around a local provider. Without WithRemote every
// prediction is served locally with reason "disabled".
func New(local *scoring.LocalProvider, opts ...Option) *Gateway {
	g := &Gateway{
		local: local,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Named("gateway")
	}
	metrics.UpdateGatewayState(g.state.gauge())
	return g
}

// Start issues the initial probe and, when an interval is configured,
// re-probes in the background until Stop or ctx is done.
func (g *Gateway) Start(ctx context.Context) State {
	st := g.Probe(ctx)
	if g.remote == nil || g.interval <= 0 || g.done != nil {
		return st
	}
	g.done = make(chan struct{})
	go g.loop(ctx)
	return st
}

// Stop ends the background re-probe loop and waits for it to exit.
func (g *Gateway) Stop() {
	g.once.Do(func() { close(g.stop) })
	if g.done != nil {
		<-g.done
	}
}

func (g *Gateway) loop(ctx context.Context) {
	defer close(g.done)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.stop:
			return
		case <-ticker.C:
			g.Probe(ctx)
		}
	}
}

// Probe checks the remote provider and caches the outcome. Concurrent
// calls share one in-flight probe. The probe itself ignores caller
// cancellation and is bounded by the remote's probe timeout; a caller that
// leaves early gets the last settled state.
func (g *Gateway) Probe(ctx context.Context) State {
	if g.remote == nil {
		return g.State()
	}
	ch := g.group.DoChan("probe", func() (any, error) {
		return g.probe(context.WithoutCancel(ctx)), nil
	})
	select {
	case r := <-ch:
		return r.Val.(State)
	case <-ctx.Done():
		return g.State()
	}
}

func (g *Gateway) probe(ctx context.Context) State {
	g.mu.Lock()
	first := g.state == StateUnknown
	if first {
		g.state = StateProbing
	}
	g.mu.Unlock()
	if first {
		metrics.UpdateGatewayState(StateProbing.gauge())
	}

	err := g.remote.Ping(ctx)
	next, msg := StateAvailable, ""
	if err != nil {
		next, msg = StateUnavailable, err.Error()
		g.logger.Warn(ctx, "remote provider unavailable",
			logger.String("endpoint", g.remote.Endpoint()), logger.Error(err))
	} else {
		g.logger.Info(ctx, "remote provider available", logger.String("endpoint", g.remote.Endpoint()))
	}
	metrics.RecordProbe(next.String())

	g.mu.Lock()
	g.probes++
	g.lastProbe = g.now()
	g.state = next
	g.lastError = msg
	g.mu.Unlock()
	metrics.UpdateGatewayState(next.gauge())
	return next
}

// State returns the cached remote state.
func (g *Gateway) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Status returns a snapshot for the operator endpoint.
func (g *Gateway) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := Status{
		State:     g.state,
		Enabled:   g.remote != nil,
		LastProbe: g.lastProbe,
		LastError: g.lastError,
		Probes:    g.probes,
	}
	if g.remote != nil {
		st.Endpoint = g.remote.Endpoint()
	}
	return st
}

// Engine returns the local engine used for fallbacks and factor detection.
func (g *Gateway) Engine() *scoring.Engine { return g.local.Engine() }

// Predict scores p. It never fails: any remote problem is absorbed by a
// local result carrying the fallback reason.
func (g *Gateway) Predict(ctx context.Context, p model.CustomerProfile) model.PredictionResult {
	start := time.Now()
	res := g.predict(ctx, p)
	res.RequestID = uuid.New()
	if res.Factors == nil {
		res.Factors = []model.RiskFactor{}
	}

	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordPrediction(res.Source(), res.Tier.String(), res.ProbabilityPercent)
	if res.FallbackReason != "" {
		metrics.RecordFallback(res.FallbackReason)
	}
	return res
}

func (g *Gateway) predict(ctx context.Context, p model.CustomerProfile) model.PredictionResult {
	if g.remote == nil {
		return g.fallback(ctx, p, ReasonDisabled)
	}
	if g.State() != StateAvailable {
		return g.fallback(ctx, p, ReasonUnavailable)
	}

	start := time.Now()
	res, err := g.remote.Predict(ctx, p)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		reason := reasonFor(err)
		metrics.RecordRemoteLatency("predict", reason, elapsed)
		metrics.RecordErrorByComponent("gateway", reason)
		g.logger.Warn(ctx, "remote prediction failed, serving local result",
			logger.String("reason", reason), logger.Error(err))
		return g.fallback(ctx, p, reason)
	}
	metrics.RecordRemoteLatency("predict", "ok", elapsed)

	res.Factors = g.local.Engine().DetectFactors(p)
	res.IsRemote = true
	res.FallbackReason = ""
	return res
}

func (g *Gateway) fallback(ctx context.Context, p model.CustomerProfile, reason string) model.PredictionResult {
	// LocalProvider never fails.
	res, _ := g.local.Predict(ctx, p)
	res.IsRemote = false
	res.FallbackReason = reason
	return res
}
