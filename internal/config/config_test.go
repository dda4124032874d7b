package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/okian/telcoguard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Locale, convey.ShouldEqual, "es")
			convey.So(cfg.RemoteURL, convey.ShouldBeEmpty)
			convey.So(cfg.RemoteTimeout(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.ProbeTimeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.ProbeInterval(), convey.ShouldEqual, time.Duration(0))
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 4096)
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 500)
			convey.So(cfg.AuditSink, convey.ShouldEqual, "none")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_KafkaBrokers(t *testing.T) {
	convey.Convey("Given a comma separated broker list", t, func() {
		cfg := config.New()
		cfg.AuditKafkaBrokers = " kafka-1:9092, ,kafka-2:9092 "

		convey.So(cfg.KafkaBrokers(), convey.ShouldResemble, []string{"kafka-1:9092", "kafka-2:9092"})

		cfg.AuditKafkaBrokers = ""
		convey.So(cfg.KafkaBrokers(), convey.ShouldBeEmpty)
	})
}
