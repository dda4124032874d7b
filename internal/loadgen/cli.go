package loadgen

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/telcoguard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the logger and, when logFile is set, tees
// output to it. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	if logFile == "" {
		return io.NopCloser(nil), nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.SetOutput(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, err
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`TelcoGuard Churn Load Generator
===============================

Submits customer profiles to /v1/predictions concurrently and checks every
locally scored result against the scoring engine.

Usage:
  churn-loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -profiles int
        Number of random profiles to generate (default 1000)
  -fixtures string
        YAML file of profiles to submit instead of random ones
  -seed uint
        Seed for the profile generator (default 1)
  -sessions int
        Spread requests over this many X-Session-ID values (default 0, none)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -locale string
        Factor label locale of the verifying engine (default "es")
  -log string
        Also write logs to this file
  -verbose
        Enable debug logging and report every mismatch
  -help
        Show this help message

Fixture format:
  profiles:
    - gender: Female
      SeniorCitizen: 0
      Partner: "No"
      ...
      TotalCharges: ""

Exit status is 1 when any local result disagrees with the engine.
`)
}
