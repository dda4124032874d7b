package api

import (
	"net/http"
)

// GatewayHandler exposes the remote provider state to operators.
type GatewayHandler struct {
	deps Dependencies
}

// NewGatewayHandler creates a gateway status handler.
func NewGatewayHandler(deps Dependencies) *GatewayHandler {
	return &GatewayHandler{deps: deps}
}

// HandleStatus handles GET /v1/gateway.
func (h *GatewayHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind("api.gateway", ErrMethod))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.GatewayStatus())
}

// HandleProbe handles POST /v1/gateway/probe.
func (h *GatewayHandler) HandleProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind("api.gateway_probe", ErrMethod))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ProbeGateway(r.Context()))
}
