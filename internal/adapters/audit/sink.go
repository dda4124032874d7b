package audit

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures a sink.
type Config struct {
	Sink            string
	KafkaBrokers    []string
	KafkaTopic      string
	PostgresDSN     string
	PostgresMigrate bool
}

// New builds the sink named by cfg.Sink. An empty name selects the noop sink.
func New(ctx context.Context, cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", "none", SinkNoop:
		return NoopSink{}, nil
	case SinkKafka:
		return NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	case SinkPostgres:
		return NewPostgresSink(ctx, cfg.PostgresDSN, cfg.PostgresMigrate)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Sink)
	}
}
