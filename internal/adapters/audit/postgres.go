package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the audit table.
const Schema = `
CREATE TABLE IF NOT EXISTS churn_predictions (
	request_id          UUID PRIMARY KEY,
	recorded_at         TIMESTAMPTZ NOT NULL,
	probability_percent SMALLINT    NOT NULL CHECK (probability_percent BETWEEN 0 AND 100),
	tier                TEXT        NOT NULL,
	source              TEXT        NOT NULL,
	fallback_reason     TEXT        NOT NULL DEFAULT '',
	factor_codes        TEXT[]      NOT NULL DEFAULT '{}',
	contract            TEXT        NOT NULL,
	tenure_months       SMALLINT    NOT NULL
);
CREATE INDEX IF NOT EXISTS churn_predictions_recorded_at_idx ON churn_predictions (recorded_at);
`

const insertEvent = `
INSERT INTO churn_predictions
	(request_id, recorded_at, probability_percent, tier, source, fallback_reason, factor_codes, contract, tenure_months)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (request_id) DO NOTHING`

// execer is the subset of *pgxpool.Pool the sink needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink inserts each event as a row of churn_predictions.
type PostgresSink struct {
	db    execer
	close func()
}

// NewPostgresSink connects to dsn and optionally creates the table.
func NewPostgresSink(ctx context.Context, dsn string, migrate bool) (*PostgresSink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres sink needs a dsn", ErrSinkConfig)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := newPostgresSink(pool, pool.Close)
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

func newPostgresSink(db execer, closeFn func()) *PostgresSink {
	return &PostgresSink{db: db, close: closeFn}
}

// Migrate creates the audit table if it does not exist.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create churn_predictions: %w", err)
	}
	return nil
}

// Record inserts e. Replays of the same request id are ignored.
func (s *PostgresSink) Record(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam
	codes := e.FactorCodes
	if codes == nil {
		codes = []string{}
	}
	_, err := s.db.Exec(ctx, insertEvent,
		e.RequestID, e.Timestamp, e.ProbabilityPercent, e.Tier, e.Source,
		e.FallbackReason, codes, e.Contract, e.TenureMonths)
	if err != nil {
		return fmt.Errorf("%w: insert churn prediction: %w", ErrRecordFailed, err)
	}
	return nil
}

// Name returns "postgres".
func (s *PostgresSink) Name() string { return SinkPostgres }

// Close releases the pool.
func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
