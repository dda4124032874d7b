package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/telcoguard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 4096)
				convey.So(cfg.AuditSink, convey.ShouldEqual, "none")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TELCOGUARD_ADDR", ":8080")
			_ = os.Setenv("TELCOGUARD_REMOTE_URL", "http://provider:8000")
			_ = os.Setenv("TELCOGUARD_REMOTE_TIMEOUT_MS", "750")
			_ = os.Setenv("TELCOGUARD_PROBE_INTERVAL_MS", "15000")
			_ = os.Setenv("TELCOGUARD_WORKER_COUNT", "16")
			_ = os.Setenv("TELCOGUARD_LOCALE", "en")
			_ = os.Setenv("TELCOGUARD_AUDIT_POSTGRES_MIGRATE", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RemoteURL, convey.ShouldEqual, "http://provider:8000")
				convey.So(cfg.RemoteTimeout(), convey.ShouldEqual, 750*time.Millisecond)
				convey.So(cfg.ProbeInterval(), convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Locale, convey.ShouldEqual, "en")
				convey.So(cfg.AuditPostgresMigrate, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
worker_count: 24
audit_sink: kafka
audit_kafka_brokers: "kafka:9092"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TELCOGUARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.AuditSink, convey.ShouldEqual, "kafka")
				convey.So(cfg.KafkaBrokers(), convey.ShouldResemble, []string{"kafka:9092"})
				convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 500)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
worker_count: 24
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TELCOGUARD_CONFIG", tmpFile)
			_ = os.Setenv("TELCOGUARD_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TELCOGUARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TELCOGUARD_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TELCOGUARD_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When selecting a sink without its settings", func() {
			_ = os.Setenv("TELCOGUARD_AUDIT_SINK", "postgres")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation names the missing setting", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "audit_postgres_dsn")
			})
		})

		convey.Convey("When selecting an unknown sink and a bad timeout", func() {
			_ = os.Setenv("TELCOGUARD_AUDIT_SINK", "s3")
			_ = os.Setenv("TELCOGUARD_REMOTE_TIMEOUT_MS", "0")
			_ = os.Setenv("TELCOGUARD_BATCH_JOB_TIMEOUT_MS", "-5")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then every problem is reported", func() {
				convey.So(err.Error(), convey.ShouldContainSubstring, "unknown audit_sink")
				convey.So(err.Error(), convey.ShouldContainSubstring, "remote_timeout_ms")
				convey.So(err.Error(), convey.ShouldContainSubstring, "batch_job_timeout_ms")
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"TELCOGUARD_CONFIG",
		"TELCOGUARD_ADDR",
		"TELCOGUARD_LOCALE",
		"TELCOGUARD_REMOTE_URL",
		"TELCOGUARD_REMOTE_TIMEOUT_MS",
		"TELCOGUARD_PROBE_INTERVAL_MS",
		"TELCOGUARD_BATCH_JOB_TIMEOUT_MS",
		"TELCOGUARD_WORKER_COUNT",
		"TELCOGUARD_AUDIT_SINK",
		"TELCOGUARD_AUDIT_POSTGRES_MIGRATE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "telcoguard-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
