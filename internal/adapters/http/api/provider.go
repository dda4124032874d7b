package api

import (
	"net/http"
	"sync/atomic"

	"github.com/okian/telcoguard/internal/adapters/remote"
	"github.com/okian/telcoguard/internal/domain/scoring"
)

// ProviderHandler serves the remote provider contract from the local
// engine, so one instance can act as another's remote.
type ProviderHandler struct {
	deps         Dependencies
	maxBodyBytes int64

	served   atomic.Int64
	rejected atomic.Int64
}

// NewProviderHandler creates a provider contract handler.
func NewProviderHandler(deps Dependencies, maxBodyBytes int64) *ProviderHandler {
	return &ProviderHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePredict handles GET and POST /api/predict.
func (h *ProviderHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleStatus(w)
	case http.MethodPost:
		h.handleScore(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind("api.provider", ErrMethod))
	}
}

func (h *ProviderHandler) handleStatus(w http.ResponseWriter) {
	info := h.deps.Engine().ModelInfo()
	writeJSON(w, http.StatusOK, remote.ModelStatus{
		Status: remote.StatusOK,
		ModelInfo: map[string]any{
			"name":    info.Name,
			"version": info.Version,
			"type":    info.Kind,
			"locale":  info.Locale,
		},
		Metrics: map[string]any{
			"predictions_served":   h.served.Load(),
			"predictions_rejected": h.rejected.Load(),
		},
		NFeatures: info.Features,
		Message:   "churn model ready",
	})
}

func (h *ProviderHandler) handleScore(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.reject(w, err)
		return
	}
	p, err := decodeProfile(body)
	if err != nil {
		h.reject(w, err)
		return
	}

	engine := h.deps.Engine()
	res := engine.Score(p)
	h.served.Add(1)
	writeJSON(w, http.StatusOK, remote.NewPredictResponse(res, scoring.Sigmoid(scoring.Logit(p)), scoring.ModelVersion))
}

func (h *ProviderHandler) reject(w http.ResponseWriter, err error) {
	h.rejected.Add(1)
	writeJSON(w, http.StatusBadRequest, remote.PredictResponse{Success: false, Error: err.Error()})
}
