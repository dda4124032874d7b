package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okian/telcoguard/internal/domain/model"
	kafkago "github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleEvent() Event {
	p := model.CustomerProfile{TenureMonths: 3, Contract: model.ContractMonthToMonth}
	r := model.PredictionResult{
		RequestID:          uuid.MustParse("6f1c2d4e-8a9b-4c3d-9e2f-1a2b3c4d5e6f"),
		ProbabilityPercent: 88,
		Tier:               model.TierCritical,
		Factors: []model.RiskFactor{
			{Code: model.FactorContractMonthly},
			{Code: model.FactorTenureLow},
		},
		FallbackReason: "timeout",
	}
	return NewEvent(p, r, time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600)))
}

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type fakeExec struct {
	sql  []string
	args [][]any
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return pgconn.CommandTag{}, f.err
}

func TestNewEvent(t *testing.T) {
	Convey("Given a served local fallback", t, func() {
		e := sampleEvent()

		Convey("Then the audit record mirrors the result", func() {
			So(e.Source, ShouldEqual, "local")
			So(e.Tier, ShouldEqual, "Critical")
			So(e.FallbackReason, ShouldEqual, "timeout")
			So(e.FactorCodes, ShouldResemble, []string{"contract_monthly", "tenure_low"})
			So(e.Contract, ShouldEqual, "Month-to-month")
			So(e.TenureMonths, ShouldEqual, 3)
			So(e.Timestamp.Location(), ShouldEqual, time.UTC)
		})
	})
}

func TestNoopSink(t *testing.T) {
	Convey("Given the noop sink", t, func() {
		var s Sink = NoopSink{}
		So(s.Record(context.Background(), sampleEvent()), ShouldBeNil)
		So(s.Name(), ShouldEqual, SinkNoop)
		So(s.Close(), ShouldBeNil)
	})
}

func TestKafkaSink(t *testing.T) {
	Convey("Given a kafka sink over a fake writer", t, func() {
		w := &fakeWriter{}
		s := newKafkaSink(w, "audit")
		e := sampleEvent()

		So(s.Record(context.Background(), e), ShouldBeNil)

		Convey("Then one message keyed by request id is written", func() {
			So(w.msgs, ShouldHaveLength, 1)
			So(string(w.msgs[0].Key), ShouldEqual, e.RequestID.String())

			var back Event
			So(json.Unmarshal(w.msgs[0].Value, &back), ShouldBeNil)
			So(back.RequestID, ShouldEqual, e.RequestID)
			So(back.ProbabilityPercent, ShouldEqual, 88)
			So(back.FactorCodes, ShouldResemble, e.FactorCodes)
		})

		Convey("And write failures are wrapped", func() {
			w.err = errors.New("broker down")
			err := s.Record(context.Background(), e)
			So(errors.Is(err, ErrRecordFailed), ShouldBeTrue)
		})

		Convey("And close closes the writer", func() {
			So(s.Close(), ShouldBeNil)
			So(w.closed, ShouldBeTrue)
		})
	})

	Convey("Given no brokers", t, func() {
		_, err := NewKafkaSink(nil, "")
		So(errors.Is(err, ErrSinkConfig), ShouldBeTrue)
	})
}

func TestPostgresSink(t *testing.T) {
	Convey("Given a postgres sink over a fake pool", t, func() {
		db := &fakeExec{}
		closed := false
		s := newPostgresSink(db, func() { closed = true })

		Convey("When migrating", func() {
			So(s.Migrate(context.Background()), ShouldBeNil)
			So(db.sql[0], ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS churn_predictions")
		})

		Convey("When recording an event", func() {
			e := sampleEvent()
			So(s.Record(context.Background(), e), ShouldBeNil)

			Convey("Then one insert carries the event columns", func() {
				So(db.sql, ShouldHaveLength, 1)
				So(db.sql[0], ShouldContainSubstring, "INSERT INTO churn_predictions")
				args := db.args[0]
				So(args, ShouldHaveLength, 9)
				So(args[0], ShouldEqual, e.RequestID)
				So(args[2], ShouldEqual, 88)
				So(args[6], ShouldResemble, []string{"contract_monthly", "tenure_low"})
			})
		})

		Convey("When the insert fails", func() {
			db.err = errors.New("connection refused")
			err := s.Record(context.Background(), sampleEvent())
			So(errors.Is(err, ErrRecordFailed), ShouldBeTrue)
		})

		Convey("When closing", func() {
			So(s.Close(), ShouldBeNil)
			So(closed, ShouldBeTrue)
		})
	})

	Convey("Given no dsn", t, func() {
		_, err := NewPostgresSink(context.Background(), "", false)
		So(errors.Is(err, ErrSinkConfig), ShouldBeTrue)
	})
}

func TestNew(t *testing.T) {
	Convey("Given sink names", t, func() {
		s, err := New(context.Background(), Config{})
		So(err, ShouldBeNil)
		So(s.Name(), ShouldEqual, SinkNoop)

		s, err = New(context.Background(), Config{Sink: "kafka", KafkaBrokers: []string{"localhost:9092"}})
		So(err, ShouldBeNil)
		So(s.Name(), ShouldEqual, SinkKafka)
		So(s.(*KafkaSink).topic, ShouldEqual, DefaultKafkaTopic)

		_, err = New(context.Background(), Config{Sink: "s3"})
		So(errors.Is(err, ErrUnknownSink), ShouldBeTrue)
	})
}
