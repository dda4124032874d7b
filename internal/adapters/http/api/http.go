// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/telcoguard/internal/app"
	"github.com/okian/telcoguard/internal/domain/gateway"
	"github.com/okian/telcoguard/internal/domain/model"
	"github.com/okian/telcoguard/internal/domain/scoring"
)

// SessionHeader names the header that groups requests for supersession.
const SessionHeader = "X-Session-ID"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Engine is the local scorer that backs the provider contract.
	Engine() *scoring.Engine

	PredictForSession(ctx context.Context, session string, p model.CustomerProfile) (model.PredictionResult, error)
	PredictBatch(ctx context.Context, profiles []model.CustomerProfile) ([]model.PredictionResult, error)

	GatewayStatus() gateway.Status
	ProbeGateway(ctx context.Context) gateway.Status
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	providerHandler    *ProviderHandler
	predictionsHandler *PredictionsHandler
	gatewayHandler     *GatewayHandler

	corsOrigin string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{corsOrigin: "*", maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	provider := NewProviderHandler(deps, cfg.maxBodyBytes)
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider, provider),
		providerHandler:    provider,
		predictionsHandler: NewPredictionsHandler(deps, cfg.maxBodyBytes),
		gatewayHandler:     NewGatewayHandler(deps),
		corsOrigin:         cfg.corsOrigin,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/predict", MetricsMiddleware(CORS(s.providerHandler.HandlePredict, s.corsOrigin), "api_predict"))
	mux.HandleFunc("/v1/predictions/batch", MetricsMiddleware(CORS(s.predictionsHandler.HandleBatch, s.corsOrigin), "predictions_batch"))
	mux.HandleFunc("/v1/predictions", MetricsMiddleware(CORS(s.predictionsHandler.HandlePredict, s.corsOrigin), "predictions"))
	mux.HandleFunc("/v1/gateway/probe", MetricsMiddleware(CORS(s.gatewayHandler.HandleProbe, s.corsOrigin), "gateway_probe"))
	mux.HandleFunc("/v1/gateway", MetricsMiddleware(CORS(s.gatewayHandler.HandleStatus, s.corsOrigin), "gateway"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service failures to status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded", WrapKind(op, ErrSuperseded, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrBatchTooLarge), errors.Is(err, service.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
