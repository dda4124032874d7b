// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// Locale selects the factor label catalog (es, en).
	Locale string `koanf:"locale"`

	// RemoteURL is the base URL of the remote prediction provider. Empty
	// disables the remote path.
	RemoteURL string `koanf:"remote_url"`
	// RemoteTimeoutMS bounds each remote prediction call.
	RemoteTimeoutMS int `koanf:"remote_timeout_ms"`
	// ProbeTimeoutMS bounds each liveness probe.
	ProbeTimeoutMS int `koanf:"probe_timeout_ms"`
	// ProbeIntervalMS re-probes the remote periodically; 0 probes once at start.
	ProbeIntervalMS int `koanf:"probe_interval_ms"`

	// WorkerCount sets the number of batch scoring workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the batch job queue.
	QueueSize int `koanf:"queue_size"`
	// MaxBatchSize caps profiles per batch request.
	MaxBatchSize int `koanf:"max_batch_size"`
	// BatchJobTimeoutMS bounds the scoring of each batch profile; 0 disables it.
	BatchJobTimeoutMS int `koanf:"batch_job_timeout_ms"`
	// SupersedeSize bounds the number of tracked sessions.
	SupersedeSize int `koanf:"supersede_size"`
	// CORSAllowOrigin is echoed in Access-Control-Allow-Origin.
	CORSAllowOrigin string `koanf:"cors_allow_origin"`

	// AuditSink is one of none, kafka, postgres.
	AuditSink string `koanf:"audit_sink"`
	// AuditKafkaBrokers is a comma separated broker list.
	AuditKafkaBrokers string `koanf:"audit_kafka_brokers"`
	AuditKafkaTopic   string `koanf:"audit_kafka_topic"`
	AuditPostgresDSN  string `koanf:"audit_postgres_dsn"`
	// AuditPostgresMigrate creates the audit table on start.
	AuditPostgresMigrate bool `koanf:"audit_postgres_migrate"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		Locale:          "es",
		RemoteTimeoutMS: 3000,
		ProbeTimeoutMS:  2000,
		WorkerCount:     runtime.NumCPU() * 4,
		QueueSize:       4096,
		MaxBatchSize:    500,
		SupersedeSize:   10_000,
		CORSAllowOrigin: "*",
		AuditSink:       "none",
		AuditKafkaTopic: "telcoguard.churn.predictions",
	}
}

// RemoteTimeout returns RemoteTimeoutMS as a duration.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutMS) * time.Millisecond
}

// ProbeTimeout returns ProbeTimeoutMS as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// BatchJobTimeout returns BatchJobTimeoutMS as a duration.
func (c *Config) BatchJobTimeout() time.Duration {
	return time.Duration(c.BatchJobTimeoutMS) * time.Millisecond
}

// ProbeInterval returns ProbeIntervalMS as a duration.
func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMS) * time.Millisecond
}
