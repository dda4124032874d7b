package scoring

import (
	"context"

	"github.com/okian/telcoguard/internal/domain/model"
)

// Provider produces a prediction for a profile. Implementations may block
// on I/O and should honor ctx.
type Provider interface {
	Predict(ctx context.Context, p model.CustomerProfile) (model.PredictionResult, error)
}

// LocalProvider serves predictions from the in-process engine. It never
// returns an error.
type LocalProvider struct {
	engine *Engine
}

// NewLocalProvider wraps an engine as a Provider.
func NewLocalProvider(e *Engine) *LocalProvider {
	return &LocalProvider{engine: e}
}

// Predict scores p locally.
func (l *LocalProvider) Predict(_ context.Context, p model.CustomerProfile) (model.PredictionResult, error) {
	return l.engine.Score(p), nil
}

// Engine exposes the wrapped engine.
func (l *LocalProvider) Engine() *Engine { return l.engine }

// ModelInfo describes the scoring model for liveness responses. It is
// descriptive only and does not drive any computation.
type ModelInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Kind     string `json:"type"`
	Locale   string `json:"locale"`
	Features int    `json:"n_features"`
}

// Version of the weight set served by this engine.
const ModelVersion = "2.0.0"

// scoredFeatures is the number of profile fields that move the logit.
const scoredFeatures = 8

// ModelInfo returns the engine's descriptive metadata.
func (e *Engine) ModelInfo() ModelInfo {
	return ModelInfo{
		Name:     "telcoguard-heuristic",
		Version:  ModelVersion,
		Kind:     "heuristic-logit",
		Locale:   e.locale,
		Features: scoredFeatures,
	}
}
