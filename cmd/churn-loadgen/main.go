package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/telcoguard/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumProfiles = 1000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		profiles = flag.Int("profiles", defaultNumProfiles, "Number of random profiles to generate")
		fixtures = flag.String("fixtures", "", "YAML file of profiles to submit instead of random ones")
		seed     = flag.Uint64("seed", 1, "Seed for the profile generator")
		sessions = flag.Int("sessions", 0, "Spread requests over this many X-Session-ID values")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		locale   = flag.String("locale", "es", "Factor label locale of the verifying engine")
		logFile  = flag.String("log", "", "Also write logs to this file")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	closer, err := loadgen.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &loadgen.Config{
		BaseURL:     *baseURL,
		NumProfiles: *profiles,
		FixtureFile: *fixtures,
		Seed:        *seed,
		Sessions:    *sessions,
		Workers:     max(*workers, 1),
		Timeout:     *timeout,
		Locale:      *locale,
		Verbose:     *verbose,
	}

	if _, err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		stop()
		cancel()
		_ = closer.Close()
		os.Exit(1)
	}
}
