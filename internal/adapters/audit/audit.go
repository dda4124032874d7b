// Package audit records served predictions to an external sink.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/telcoguard/internal/domain/model"
)

// Sink names accepted in configuration.
const (
	SinkNoop     = "noop"
	SinkKafka    = "kafka"
	SinkPostgres = "postgres"
)

// Event is the audit record of one served prediction.
type Event struct {
	RequestID          uuid.UUID `json:"request_id"`
	Timestamp          time.Time `json:"timestamp"`
	ProbabilityPercent int       `json:"probability_percent"`
	Tier               string    `json:"tier"`
	Source             string    `json:"source"`
	FallbackReason     string    `json:"fallback_reason,omitempty"`
	FactorCodes        []string  `json:"factor_codes"`
	Contract           string    `json:"contract"`
	TenureMonths       int       `json:"tenure_months"`
}

// NewEvent builds the audit record for a result served for p.
func NewEvent(p model.CustomerProfile, r model.PredictionResult, at time.Time) Event {
	return Event{
		RequestID:          r.RequestID,
		Timestamp:          at.UTC(),
		ProbabilityPercent: r.ProbabilityPercent,
		Tier:               r.Tier.String(),
		Source:             r.Source(),
		FallbackReason:     r.FallbackReason,
		FactorCodes:        r.FactorCodes(),
		Contract:           p.Contract.String(),
		TenureMonths:       p.TenureMonths,
	}
}

// Sink persists audit events. Record must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, e Event) error
	Name() string
	Close() error
}

// NoopSink discards every event.
type NoopSink struct{}

// Record does nothing.
func (NoopSink) Record(context.Context, Event) error { return nil }

// Name returns "noop".
func (NoopSink) Name() string { return SinkNoop }

// Close does nothing.
func (NoopSink) Close() error { return nil }
