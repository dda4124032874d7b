package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/telcoguard/internal/adapters/audit"
	service "github.com/okian/telcoguard/internal/app"
	"github.com/okian/telcoguard/internal/domain/gateway"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/internal/domain/scoring"
	"github.com/okian/telcoguard/pkg/logger"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	_ = logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func profile(tenure int) model.CustomerProfile {
	return model.CustomerProfile{
		TenureMonths:    tenure,
		Contract:        model.ContractMonthToMonth,
		PaymentMethod:   model.PaymentElectronicCheck,
		MonthlyCharges:  decimal.NewFromInt(80),
		InternetService: model.InternetFiberOptic,
	}.WithDerivedTotal()
}

// gatedRemote blocks the first Predict until release is closed.
type gatedRemote struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedRemote() *gatedRemote {
	return &gatedRemote{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedRemote) Ping(context.Context) error { return nil }
func (g *gatedRemote) Endpoint() string           { return "http://gated/api/predict" }

func (g *gatedRemote) Predict(ctx context.Context, p model.CustomerProfile) (model.PredictionResult, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
	}
	return model.PredictionResult{ProbabilityPercent: 50, Tier: model.TierMedium}, nil
}

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
	closed bool
	late   int
}

func (r *recordingSink) Record(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.late++
	}
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		_, err := svc.Predict(ctx, profile(3))
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		_, err = svc.PredictBatch(ctx, []model.CustomerProfile{profile(3)})
		So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		So(svc.GatewayStatus().State, ShouldEqual, gateway.StateUnknown)
		So(svc.GetStats()["started"], ShouldBeFalse)

		Convey("When it is started and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			_, err := svc.Predict(ctx, profile(3))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Predict(t *testing.T) {
	Convey("Given a started service without a remote provider", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithLocale("en"))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		res, err := svc.Predict(ctx, profile(2))

		Convey("Then the local result is served with reason disabled", func() {
			So(err, ShouldBeNil)
			want := scoring.NewEngine(scoring.WithLocale("en")).Score(profile(2))
			So(res.IsRemote, ShouldBeFalse)
			So(res.FallbackReason, ShouldEqual, gateway.ReasonDisabled)
			So(res.ProbabilityPercent, ShouldEqual, want.ProbabilityPercent)
			So(res.Factors, ShouldResemble, want.Factors)
			So(svc.Engine().Locale(), ShouldEqual, "en")
		})

		Convey("And the gateway reports the remote as disabled", func() {
			st := svc.GatewayStatus()
			So(st.Enabled, ShouldBeFalse)
			So(svc.ProbeGateway(ctx).Enabled, ShouldBeFalse)
		})

		Convey("And stats count the prediction", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["predictionsServed"], ShouldEqual, int64(1))
			So(stats["gatewayState"], ShouldEqual, "unknown")
			So(stats["auditSink"], ShouldEqual, audit.SinkNoop)
		})
	})
}

func TestService_Supersession(t *testing.T) {
	Convey("Given two overlapping requests for one session", t, func() {
		remote := newGatedRemote()
		sink := &recordingSink{}
		svc := service.New(service.WithRemote(remote), service.WithAuditSink(sink))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		type outcome struct {
			res model.PredictionResult
			err error
		}
		first := make(chan outcome, 1)
		go func() {
			res, err := svc.PredictForSession(ctx, "customer-42", profile(5))
			first <- outcome{res, err}
		}()
		<-remote.entered

		second, err := svc.PredictForSession(ctx, "customer-42", profile(60))
		close(remote.release)
		older := <-first
		svc.Stop()

		Convey("Then the newer result is served", func() {
			So(err, ShouldBeNil)
			So(second.IsRemote, ShouldBeTrue)
		})

		Convey("And the older result is discarded", func() {
			So(errors.Is(older.err, service.ErrSuperseded), ShouldBeTrue)
			So(svc.GetStats()["supersededResults"], ShouldEqual, int64(1))
		})

		Convey("And only the served result is audited", func() {
			So(sink.count(), ShouldEqual, 1)
			So(sink.events[0].RequestID, ShouldEqual, second.RequestID)
			So(sink.closed, ShouldBeTrue)
		})
	})

	Convey("Given a request without a session", t, func() {
		svc := service.New()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.PredictForSession(ctx, "", profile(5))
		So(err, ShouldBeNil)
		So(svc.GetStats()["trackedSessions"], ShouldEqual, int64(0))
	})
}

func TestService_PredictBatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(8), service.WithMaxBatchSize(6))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		engine := scoring.NewEngine()

		Convey("When a batch is scored", func() {
			profiles := []model.CustomerProfile{profile(1), profile(30), profile(72), profile(12)}
			results, err := svc.PredictBatch(ctx, profiles)

			Convey("Then results come back in input order", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, len(profiles))
				for i, p := range profiles {
					So(results[i].ProbabilityPercent, ShouldEqual, engine.Score(p).ProbabilityPercent)
				}
				So(svc.GetStats()["batches"], ShouldEqual, int64(1))
			})
		})

		Convey("When the batch is empty", func() {
			_, err := svc.PredictBatch(ctx, nil)
			So(errors.Is(err, service.ErrEmptyBatch), ShouldBeTrue)
		})

		Convey("When the batch exceeds the limit", func() {
			_, err := svc.PredictBatch(ctx, make([]model.CustomerProfile, 7))
			So(errors.Is(err, service.ErrBatchTooLarge), ShouldBeTrue)
		})
	})

	Convey("Given a queue smaller than the batch", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(2), service.WithMaxBatchSize(10))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.PredictBatch(ctx, []model.CustomerProfile{profile(1), profile(2), profile(3)})

		Convey("Then the whole batch is rejected", func() {
			So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
			So(svc.GetStats()["batchesRejected"], ShouldEqual, int64(1))
		})
	})
}

func TestService_Audit(t *testing.T) {
	Convey("Given a failing audit sink", t, func() {
		sink := &recordingSink{err: errors.New("broker down")}
		svc := service.New(service.WithAuditSink(sink))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		res, err := svc.Predict(ctx, profile(8))
		svc.Stop()

		Convey("Then the prediction is still served", func() {
			So(err, ShouldBeNil)
			So(res.ProbabilityPercent, ShouldBeGreaterThan, 0)
			So(svc.GetStats()["auditFailures"], ShouldEqual, int64(1))
		})
	})

	Convey("Given a working audit sink", t, func() {
		sink := &recordingSink{}
		svc := service.New(service.WithAuditSink(sink), service.WithWorkerCount(2))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		_, err := svc.PredictBatch(ctx, []model.CustomerProfile{profile(1), profile(2)})
		So(err, ShouldBeNil)
		deadline := time.Now().Add(2 * time.Second)
		for sink.count() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		svc.Stop()

		Convey("Then every batch item is recorded", func() {
			So(sink.count(), ShouldEqual, 2)
			So(sink.events[0].Source, ShouldEqual, "local")
		})
	})

	Convey("Given a prediction still in flight when the service stops", t, func() {
		remote := newGatedRemote()
		sink := &recordingSink{}
		svc := service.New(service.WithRemote(remote), service.WithAuditSink(sink))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)

		served := make(chan error, 1)
		go func() {
			_, err := svc.PredictForSession(ctx, "late-session", profile(4))
			served <- err
		}()
		<-remote.entered
		svc.Stop()
		close(remote.release)
		err := <-served

		Convey("Then the result is returned but never handed to the closed sink", func() {
			So(err, ShouldBeNil)
			sink.mu.Lock()
			defer sink.mu.Unlock()
			So(sink.closed, ShouldBeTrue)
			So(sink.late, ShouldEqual, 0)
			So(sink.events, ShouldBeEmpty)
		})
	})
}
