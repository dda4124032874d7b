package service

import (
	"time"

	"github.com/okian/telcoguard/internal/adapters/audit"
	"github.com/okian/telcoguard/internal/domain/gateway"
	"github.com/okian/telcoguard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxBatchSize caps profiles per batch.
func WithMaxBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxBatchSize = size
		}
	}
}

// WithSupersedeSize bounds the number of tracked sessions.
func WithSupersedeSize(size int) Option {
	return func(s *Service) {
		s.supersedeSize = size
	}
}

// WithLocale selects the factor label catalog.
func WithLocale(locale string) Option {
	return func(s *Service) {
		if locale != "" {
			s.locale = locale
		}
	}
}

// WithRemoteURL enables the remote provider at url.
func WithRemoteURL(url string) Option {
	return func(s *Service) {
		s.remoteURL = url
	}
}

// WithRemoteTimeouts sets the per-call and per-probe bounds.
func WithRemoteTimeouts(call, probe time.Duration) Option {
	return func(s *Service) {
		if call > 0 {
			s.callTimeout = call
		}
		if probe > 0 {
			s.probeTimeout = probe
		}
	}
}

// WithProbeInterval enables periodic re-probing of the remote.
func WithProbeInterval(d time.Duration) Option {
	return func(s *Service) {
		s.probeInterval = d
	}
}

// WithBatchJobTimeout bounds the scoring of each batch profile.
func WithBatchJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.jobTimeout = d
	}
}

// WithRemote injects a remote provider, overriding WithRemoteURL.
func WithRemote(r gateway.Remote) Option {
	return func(s *Service) {
		s.remote = r
	}
}

// WithAuditSink sets where served predictions are recorded.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.audit = sink
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
