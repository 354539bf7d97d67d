package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/advisory"
	"github.com/quantdesk/advisor/internal/backtest"
	"github.com/quantdesk/advisor/internal/data"
	"github.com/quantdesk/advisor/internal/metrics"
	"github.com/quantdesk/advisor/internal/persistence"
	"github.com/quantdesk/advisor/internal/regime"
	"github.com/quantdesk/advisor/internal/risk"
)

// Handlers bundles the API's collaborators. Repositories and metrics may
// be nil; the endpoints then skip persistence and instrumentation.
type Handlers struct {
	engine    *advisory.Engine
	detector  *regime.Detector
	strategy  backtest.StrategyConfig
	candles   data.CandleSource
	fetcher   *data.PortfolioFetcher
	sectors   risk.SectorLookup
	backtests persistence.BacktestRepo
	decisions persistence.DecisionRepo
	registry  *metrics.Registry
	startTime time.Time

	mu         sync.Mutex
	lastRegime string
}

// NewHandlers creates the handler set.
func NewHandlers(engine *advisory.Engine, detector *regime.Detector, strategy backtest.StrategyConfig,
	candles data.CandleSource, fetcher *data.PortfolioFetcher, sectors risk.SectorLookup,
	backtests persistence.BacktestRepo, decisions persistence.DecisionRepo, registry *metrics.Registry) *Handlers {
	if sectors == nil {
		sectors = risk.SectorLookupFunc(func(string) string { return risk.UnknownSector })
	}
	return &Handlers{
		engine:    engine,
		detector:  detector,
		strategy:  strategy,
		candles:   candles,
		fetcher:   fetcher,
		sectors:   sectors,
		backtests: backtests,
		decisions: decisions,
		registry:  registry,
		startTime: time.Now(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// Health reports liveness and uptime.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound returns a JSON 404.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
}

// Regime returns the current detection state.
func (h *Handlers) Regime(w http.ResponseWriter, r *http.Request) {
	state := h.detector.Detect()
	if h.registry != nil {
		h.registry.SetActiveRegime(state.Regime, regime.All())
		h.mu.Lock()
		if h.lastRegime != "" && h.lastRegime != state.Regime {
			h.registry.RegimeSwitches.WithLabelValues(h.lastRegime, state.Regime).Inc()
		}
		h.lastRegime = state.Regime
		h.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, state)
}
