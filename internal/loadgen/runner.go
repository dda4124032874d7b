package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/internal/domain/scoring"
	"github.com/okian/telcoguard/pkg/logger"
)

// Run executes the complete load run. It returns ErrMismatch when any
// local result disagrees with the engine.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting churn load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("profiles", config.NumProfiles),
		logger.String("fixtures", config.FixtureFile),
		logger.Int("workers", config.Workers),
		logger.Int("sessions", config.Sessions),
		logger.Duration("timeout", config.Timeout))

	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, err
	}

	profiles, err := loadProfiles(ctx, config, stats)
	if err != nil {
		return stats, err
	}

	subs := submitProfiles(ctx, config, profiles)
	engine := scoring.NewEngine(scoring.WithLocale(config.Locale))
	mismatches := verifyResults(ctx, config, engine, subs, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(mismatches) > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrMismatch, len(mismatches), stats.Verified)
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func loadProfiles(ctx context.Context, config *Config, stats *Stats) ([]model.CustomerProfile, error) {
	if config.FixtureFile != "" {
		profiles, err := LoadFixtures(config.FixtureFile)
		if err != nil {
			return nil, err
		}
		stats.Generated = len(profiles)
		logger.Get().Info(ctx, "loaded fixtures", logger.Int("count", len(profiles)))
		return profiles, nil
	}
	if config.NumProfiles <= 0 {
		return nil, ErrNoProfiles
	}
	return generateProfiles(ctx, config, stats), nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.BaseURL, config.Timeout)
	resp, err := client.Get(ctx, healthPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Served) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("served", stats.Served),
		logger.Int("remote", stats.Remote),
		logger.Int("local", stats.Local),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("superseded", stats.Superseded),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Any("fallbacks", stats.Fallbacks),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", perSecond))
}
