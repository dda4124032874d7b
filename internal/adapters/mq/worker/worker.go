// Package worker runs batch scoring jobs taken off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/telcoguard/internal/adapters/mq/queue"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/pkg/logger"
	"github.com/okian/telcoguard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Predictor scores one profile. It must not fail; the gateway absorbs
// remote errors into a local result.
type Predictor interface {
	Predict(ctx context.Context, p model.CustomerProfile) model.PredictionResult
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs and replies on each job's channel.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	predictor  Predictor
	name       string
	jobTimeout time.Duration

	processed atomic.Int64
	abandoned atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, p Predictor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		predictor: p,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, j)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// drain waits for Run to return on its own once the queue is closed and
// empty. A worker still busy when ctx ends is told to stop.
func (w *InMemoryWorker) drain(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
	}
	w.stop()
	w.logger.Warn(ctx, "drain timed out")
	return fmt.Errorf("drain timed out: %w", ctx.Err())
}

// Processed returns how many jobs this worker scored.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// processJob scores one job and delivers the result without blocking.
func (w *InMemoryWorker) processJob(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: Job is received by value
	if j.Abandoned() {
		w.abandon(ctx, j, "caller gone before scoring")
		return
	}

	jctx, cancel := w.jobContext(ctx, j)
	defer cancel()

	metrics.AddWorkerActive(1)
	start := time.Now()
	res := w.predictor.Predict(jctx, j.Profile)
	metrics.RecordWorkerJobLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.AddWorkerActive(-1)
	w.processed.Add(1)

	select {
	case j.Reply <- queue.Result{Index: j.Index, Prediction: res}:
	default:
		w.abandon(ctx, j, "reply channel full")
	}
}

// jobContext derives the scoring context of j. It is cancelled when the
// batch caller stops waiting or the job timeout elapses.
func (w *InMemoryWorker) jobContext(ctx context.Context, j queue.Job) (context.Context, context.CancelFunc) { //nolint:gocritic // hugeParam
	var cancel context.CancelFunc
	if w.jobTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, w.jobTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	if j.Done != nil {
		go func() {
			select {
			case <-j.Done:
				cancel()
			case <-ctx.Done():
			}
		}()
	}
	return ctx, cancel
}

func (w *InMemoryWorker) abandon(ctx context.Context, j queue.Job, why string) { //nolint:gocritic // hugeParam
	w.abandoned.Add(1)
	metrics.RecordWorkerJobAbandoned()
	w.logger.Debug(ctx, "job abandoned", logger.Int("index", j.Index), logger.String("why", why))
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below one selects a CPU based
// default. opts apply to every worker; names are assigned by the pool.
func NewPool(workerCount int, q Queue, p Predictor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append(slices.Clone(opts), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, p, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs scored across the pool.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, lets the workers score every job already
// queued and waits for them to exit. Workers still busy after ctx or the
// pool timeout are stopped. A queue that cannot be closed is not drained.
func (p *Pool) Shutdown(ctx context.Context) error {
	closer, closable := p.queue.(interface{ Close() error })
	if closable {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
			closable = false
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		wait := w.Shutdown
		if closable {
			wait = w.drain
		}
		if err := wait(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
