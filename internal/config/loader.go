package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names.
const (
	EnvPrefix     = "TELCOGUARD_"
	EnvConfigPath = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TELCOGUARD_CONFIG is set
//  3. env (prefix TELCOGUARD_)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TELCOGUARD_REMOTE_URL -> remote_url. Underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.RemoteTimeoutMS <= 0 {
		errs = append(errs, errors.New("remote_timeout_ms must be positive"))
	}
	if c.ProbeTimeoutMS <= 0 {
		errs = append(errs, errors.New("probe_timeout_ms must be positive"))
	}
	if c.ProbeIntervalMS < 0 {
		errs = append(errs, errors.New("probe_interval_ms must not be negative"))
	}
	if c.BatchJobTimeoutMS < 0 {
		errs = append(errs, errors.New("batch_job_timeout_ms must not be negative"))
	}
	if c.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("max_batch_size must be positive"))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, errors.New("queue_size must be positive"))
	}
	switch c.AuditSink {
	case "", "none", "noop":
	case "kafka":
		if len(c.KafkaBrokers()) == 0 {
			errs = append(errs, errors.New("audit_kafka_brokers is required for the kafka sink"))
		}
	case "postgres":
		if c.AuditPostgresDSN == "" {
			errs = append(errs, errors.New("audit_postgres_dsn is required for the postgres sink"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown audit_sink %q", c.AuditSink))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// KafkaBrokers splits AuditKafkaBrokers on commas.
func (c *Config) KafkaBrokers() []string {
	var out []string
	for _, b := range strings.Split(c.AuditKafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
