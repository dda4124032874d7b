package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/internal/domain/scoring"
)

// predictionResponse mirrors the OpenAPI schema for a served prediction.
type predictionResponse struct {
	RequestID          string             `json:"request_id"`
	ProbabilityPercent int                `json:"probability_percent"`
	RiskTier           model.RiskTier     `json:"risk_tier"`
	RiskLevel          string             `json:"risk_level"`
	Factors            []model.RiskFactor `json:"factors"`
	IsRemote           bool               `json:"is_remote"`
	FallbackReason     string             `json:"fallback_reason,omitempty"`
	Summary            string             `json:"summary"`
	Recommendation     string             `json:"recommendation,omitempty"`
}

func newPredictionResponse(e *scoring.Engine, r model.PredictionResult) predictionResponse {
	factors := r.Factors
	if factors == nil {
		factors = []model.RiskFactor{}
	}
	return predictionResponse{
		RequestID:          r.RequestID.String(),
		ProbabilityPercent: r.ProbabilityPercent,
		RiskTier:           r.Tier,
		RiskLevel:          r.Tier.WireName(),
		Factors:            factors,
		IsRemote:           r.IsRemote,
		FallbackReason:     r.FallbackReason,
		Summary:            e.Summary(factors),
		Recommendation:     e.Recommendation(r.Tier),
	}
}

type batchRequest struct {
	Profiles []json.RawMessage `json:"profiles"`
}

type batchResponse struct {
	Results []predictionResponse `json:"results"`
}

// PredictionsHandler serves gateway-backed predictions.
type PredictionsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewPredictionsHandler creates a predictions handler.
func NewPredictionsHandler(deps Dependencies, maxBodyBytes int64) *PredictionsHandler {
	return &PredictionsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePredict handles POST /v1/predictions.
func (h *PredictionsHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
		return
	}
	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := decodeValidProfile(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.PredictForSession(r.Context(), r.Header.Get(SessionHeader), p)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictionResponse(h.deps.Engine(), res))
}

// HandleBatch handles POST /v1/predictions/batch.
func (h *PredictionsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethod))
		return
	}
	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	profiles := make([]model.CustomerProfile, len(req.Profiles))
	for i, raw := range req.Profiles {
		p, err := decodeValidProfile(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("profiles[%d]: %w", i, err)))
			return
		}
		profiles[i] = p
	}

	results, err := h.deps.PredictBatch(r.Context(), profiles)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	engine := h.deps.Engine()
	out := batchResponse{Results: make([]predictionResponse, len(results))}
	for i, res := range results {
		out.Results[i] = newPredictionResponse(engine, res)
	}
	writeJSON(w, http.StatusOK, out)
}
