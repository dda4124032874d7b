// Package loadgen drives the prediction API with generated or fixture
// profiles and checks local results against the scoring engine.
package loadgen

import (
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrMismatch    = errors.New("local results disagree with the engine")
	ErrNoProfiles  = errors.New("no profiles to submit")
	ErrUnhealthy   = errors.New("service health check failed")
	ErrBadFixtures = errors.New("invalid fixture file")
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumProfiles int           // Number of random profiles, ignored with FixtureFile
	FixtureFile string        // Optional YAML file of wire profiles
	Seed        uint64        // Seed for the profile generator
	Sessions    int           // Distinct X-Session-ID values; 0 sends none
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Locale      string        // Locale of the engine used for verification
	Verbose     bool          // Log every mismatch
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Served     int
	Remote     int
	Local      int
	Verified   int
	Mismatches int
	Superseded int
	Rejected   int
	Failed     int
	Fallbacks  map[string]int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
