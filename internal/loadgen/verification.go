package loadgen

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/telcoguard/internal/domain/scoring"
	"github.com/okian/telcoguard/pkg/logger"
)

// Mismatch describes a local result that the engine scores differently.
type Mismatch struct {
	Index     int
	RequestID string
	Reason    string
}

// verifyResults tallies submissions into stats and re-scores every local
// result with engine. Remote results are counted but not checked.
func verifyResults(ctx context.Context, config *Config, engine *scoring.Engine, subs []submission, stats *Stats) []Mismatch {
	var mismatches []Mismatch
	stats.Fallbacks = make(map[string]int)

	for _, s := range subs {
		stats.Submitted++
		switch s.outcome {
		case outcomeSuperseded:
			stats.Superseded++
			continue
		case outcomeRejected:
			stats.Rejected++
			continue
		case outcomeFailed:
			stats.Failed++
			continue
		}

		stats.Served++
		if s.prediction.IsRemote {
			stats.Remote++
			continue
		}
		stats.Local++
		if s.prediction.FallbackReason != "" {
			stats.Fallbacks[s.prediction.FallbackReason]++
		}

		stats.Verified++
		if reason := compare(engine, s); reason != "" {
			mismatches = append(mismatches, Mismatch{Index: s.index, RequestID: s.prediction.RequestID, Reason: reason})
		}
	}
	stats.Mismatches = len(mismatches)

	log := logger.Get()
	for i, m := range mismatches {
		if !config.Verbose && i >= maxReportedMismatch {
			break
		}
		log.Warn(ctx, "result mismatch",
			logger.Int("index", m.Index), logger.String("requestID", m.RequestID), logger.String("reason", m.Reason))
	}
	return mismatches
}

// compare returns why s disagrees with the engine, or "" when it agrees.
func compare(engine *scoring.Engine, s submission) string {
	want := engine.Score(s.profile)
	got := s.prediction
	switch {
	case got.ProbabilityPercent != want.ProbabilityPercent:
		return fmt.Sprintf("percent %d, engine %d", got.ProbabilityPercent, want.ProbabilityPercent)
	case got.RiskTier != want.Tier.String():
		return fmt.Sprintf("tier %s, engine %s", got.RiskTier, want.Tier)
	case !slices.Equal(got.FactorCodes(), want.FactorCodes()):
		return fmt.Sprintf("factors %v, engine %v", got.FactorCodes(), want.FactorCodes())
	}
	return ""
}
