package api

import (
	"net/http"
	"time"
)

// StatsProvider reports service level counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves the service counters together with the API's own.
type StatsHandler struct {
	statsProvider StatsProvider
	provider      *ProviderHandler
	started       time.Time
}

// NewStatsHandler creates a stats handler. provider may be nil.
func NewStatsHandler(statsProvider StatsProvider, provider *ProviderHandler) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, provider: provider, started: time.Now()}
}

// HandleStats handles GET /stats. Service keys are returned as is; the
// "api" key holds uptime and provider contract counters.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind("api.stats", ErrMethod))
		return
	}
	out := make(map[string]interface{})
	if h.statsProvider != nil {
		for k, v := range h.statsProvider.GetStats() {
			out[k] = v
		}
	}
	apiStats := map[string]interface{}{
		"uptimeSeconds": int64(time.Since(h.started).Seconds()),
	}
	if h.provider != nil {
		apiStats["providerServed"] = h.provider.served.Load()
		apiStats["providerRejected"] = h.provider.rejected.Load()
	}
	out["api"] = apiStats
	writeJSON(w, http.StatusOK, out)
}
