// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/telcoguard/internal/adapters/audit"
	eventqueue "github.com/okian/telcoguard/internal/adapters/mq/queue"
	workerpool "github.com/okian/telcoguard/internal/adapters/mq/worker"
	"github.com/okian/telcoguard/internal/adapters/remote"
	"github.com/okian/telcoguard/internal/domain/gateway"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/internal/domain/scoring"
	"github.com/okian/telcoguard/internal/domain/supersede"
	"github.com/okian/telcoguard/pkg/logger"
	"github.com/okian/telcoguard/pkg/metrics"
)

const auditTimeout = 2 * time.Second

// Service implements the API dependencies for churn prediction.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine  *scoring.Engine
	gateway *gateway.Gateway
	tracker supersede.Tracker
	jobs    *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	audit   audit.Sink
	remote  gateway.Remote

	// Configuration
	workerCount   int
	queueSize     int
	maxBatchSize  int
	supersedeSize int
	locale        string
	remoteURL     string
	callTimeout   time.Duration
	probeTimeout  time.Duration
	probeInterval time.Duration
	jobTimeout    time.Duration

	// Counters
	served     atomic.Int64
	superseded atomic.Int64
	batches    atomic.Int64
	rejected   atomic.Int64
	auditFails atomic.Int64

	// auditMu orders auditWG.Add against the Wait in Stop.
	auditMu     sync.Mutex
	auditClosed bool
	auditWG     sync.WaitGroup

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 4,
		queueSize:     4096,
		maxBatchSize:  500,
		supersedeSize: 10_000,
		locale:        scoring.DefaultLocale,
		audit:         audit.NoopSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = scoring.NewEngine(scoring.WithLocale(s.locale))
	return s
}

// Start initializes and starts the service components. The initial remote
// probe runs before Start returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting churn service...")

	gwOpts := []gateway.Option{gateway.WithProbeInterval(s.probeInterval)}
	if s.remote == nil && s.remoteURL != "" {
		client, err := remote.NewClient(s.remoteURL,
			remote.WithCallTimeout(s.callTimeout),
			remote.WithProbeTimeout(s.probeTimeout),
		)
		if err != nil {
			return fmt.Errorf("remote provider: %w", err)
		}
		s.remote = client
	}
	if s.remote != nil {
		gwOpts = append(gwOpts, gateway.WithRemote(s.remote))
	}
	s.gateway = gateway.New(scoring.NewLocalProvider(s.engine), gwOpts...)
	state := s.gateway.Start(ctx)

	s.auditMu.Lock()
	s.auditClosed = false
	s.auditMu.Unlock()

	s.tracker = supersede.NewInMemoryTracker(supersede.WithMaxSize(s.supersedeSize))
	s.jobs = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, predictorFunc(s.predictAndAudit),
		workerpool.WithJobTimeout(s.jobTimeout))
	// Workers live until Stop so queued batch jobs outlast the start context.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "churn service started",
		logger.String("locale", s.engine.Locale()),
		logger.String("gateway", state.String()),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.String("audit", s.audit.Name()),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping churn service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.gateway.Stop()
	s.auditMu.Lock()
	s.auditClosed = true
	s.auditMu.Unlock()
	s.auditWG.Wait()
	if err := s.audit.Close(); err != nil {
		s.logger.Warn(ctx, "closing audit sink", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "churn service stopped")
}

// predictorFunc adapts a function to workerpool.Predictor.
type predictorFunc func(ctx context.Context, p model.CustomerProfile) model.PredictionResult

func (f predictorFunc) Predict(ctx context.Context, p model.CustomerProfile) model.PredictionResult {
	return f(ctx, p)
}

// Engine returns the local scoring engine.
func (s *Service) Engine() *scoring.Engine { return s.engine }

func (s *Service) running() (*gateway.Gateway, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.gateway, nil
}

// Predict scores one profile through the gateway. It fails only when the
// service is not running.
func (s *Service) Predict(ctx context.Context, p model.CustomerProfile) (model.PredictionResult, error) {
	if _, err := s.running(); err != nil {
		return model.PredictionResult{}, err
	}
	return s.predictAndAudit(ctx, p), nil
}

// PredictForSession scores p and returns ErrSuperseded when a newer request
// for the same session started before this one finished. An empty session
// disables the check.
func (s *Service) PredictForSession(ctx context.Context, session string, p model.CustomerProfile) (model.PredictionResult, error) {
	gw, err := s.running()
	if err != nil {
		return model.PredictionResult{}, err
	}
	if session == "" {
		return s.predictAndAudit(ctx, p), nil
	}

	ticket := s.tracker.Begin(ctx, session)
	res := gw.Predict(ctx, p)
	if !s.tracker.Finish(ctx, ticket) {
		s.superseded.Add(1)
		metrics.RecordSuperseded()
		s.logger.Debug(ctx, "discarding superseded result",
			logger.String("session", session), logger.String("requestID", res.RequestID.String()))
		return model.PredictionResult{}, ErrSuperseded
	}
	s.served.Add(1)
	s.record(ctx, p, res)
	return res, nil
}

// PredictBatch scores profiles on the worker pool and returns results in
// input order. Either every job is queued or ErrBackpressure is returned.
func (s *Service) PredictBatch(ctx context.Context, profiles []model.CustomerProfile) ([]model.PredictionResult, error) {
	if _, err := s.running(); err != nil {
		return nil, err
	}
	switch {
	case len(profiles) == 0:
		return nil, ErrEmptyBatch
	case len(profiles) > s.maxBatchSize:
		return nil, fmt.Errorf("%w: %d profiles, max %d", ErrBatchTooLarge, len(profiles), s.maxBatchSize)
	}
	metrics.RecordBatchSize(len(profiles))

	reply := make(chan eventqueue.Result, len(profiles))
	jobs := make([]eventqueue.Job, len(profiles))
	for i, p := range profiles {
		jobs[i] = eventqueue.Job{Index: i, Profile: p, Reply: reply, Done: ctx.Done()}
	}
	if err := s.jobs.EnqueueAll(ctx, jobs); err != nil {
		if errors.Is(err, eventqueue.ErrFull) || errors.Is(err, eventqueue.ErrClosed) {
			s.rejected.Add(1)
			return nil, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return nil, err
	}
	s.batches.Add(1)

	results := make([]model.PredictionResult, len(profiles))
	for received := 0; received < len(profiles); received++ {
		select {
		case r := <-reply:
			results[r.Index] = r.Prediction
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, nil
}

// GatewayStatus returns the cached remote state.
func (s *Service) GatewayStatus() gateway.Status {
	gw, err := s.running()
	if err != nil {
		return gateway.Status{}
	}
	return gw.Status()
}

// ProbeGateway re-probes the remote and returns the new status.
func (s *Service) ProbeGateway(ctx context.Context) gateway.Status {
	gw, err := s.running()
	if err != nil {
		return gateway.Status{}
	}
	gw.Probe(ctx)
	return gw.Status()
}

func (s *Service) predictAndAudit(ctx context.Context, p model.CustomerProfile) model.PredictionResult {
	res := s.gateway.Predict(ctx, p)
	s.served.Add(1)
	s.record(ctx, p, res)
	return res
}

// record hands the result to the audit sink without delaying the caller.
func (s *Service) record(ctx context.Context, p model.CustomerProfile, res model.PredictionResult) {
	if _, ok := s.audit.(audit.NoopSink); ok {
		return
	}
	s.auditMu.Lock()
	if s.auditClosed {
		s.auditMu.Unlock()
		s.logger.Debug(ctx, "service stopped, prediction not audited",
			logger.String("requestID", res.RequestID.String()))
		return
	}
	s.auditWG.Add(1)
	s.auditMu.Unlock()

	e := audit.NewEvent(p, res, time.Now())
	go func() {
		defer s.auditWG.Done()
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
		defer cancel()
		if err := s.audit.Record(actx, e); err != nil {
			s.auditFails.Add(1)
			metrics.RecordAudit(s.audit.Name(), "error")
			metrics.RecordErrorByComponent("audit", s.audit.Name())
			s.logger.Warn(actx, "audit record failed",
				logger.String("requestID", e.RequestID.String()), logger.Error(err))
			return
		}
		metrics.RecordAudit(s.audit.Name(), "ok")
	}()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"maxBatchSize":      s.maxBatchSize,
		"locale":            s.engine.Locale(),
		"model":             s.engine.ModelInfo(),
		"auditSink":         s.audit.Name(),
		"predictionsServed": s.served.Load(),
		"supersededResults": s.superseded.Load(),
		"batches":           s.batches.Load(),
		"batchesRejected":   s.rejected.Load(),
		"auditFailures":     s.auditFails.Load(),
	}

	if s.started {
		queueLen := s.jobs.Len(ctx)
		st := s.gateway.Status()
		stats["queueLength"] = queueLen
		stats["trackedSessions"] = s.tracker.Size()
		stats["batchJobsProcessed"] = s.pool.Processed()
		stats["gatewayState"] = st.State.String()
		stats["remoteEnabled"] = st.Enabled

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}
