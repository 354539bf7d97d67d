package http

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/backtest"
	"github.com/quantdesk/advisor/internal/persistence"
)

type backtestRequest struct {
	Code         string                   `json:"code"`
	LookbackDays int                      `json:"lookback_days"`
	Strategy     *backtest.StrategyConfig `json:"strategy,omitempty"`
	WalkForward  bool                     `json:"walk_forward"`
	SplitRatio   float64                  `json:"split_ratio,omitempty"`
}

type backtestResponse struct {
	Result      *backtest.Result             `json:"result"`
	Performance *backtest.PerformanceMetrics `json:"performance"`
	WalkForward *backtest.WalkForwardResult  `json:"walk_forward,omitempty"`
}

// Backtest fetches candles, simulates the strategy and scores the run.
func (h *Handlers) Backtest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.LookbackDays <= 0 {
		req.LookbackDays = 250
	}

	cfg := h.strategy
	if req.Strategy != nil {
		cfg = *req.Strategy
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	candles, err := h.candles.Fetch(req.Code, req.LookbackDays)
	if err != nil {
		writeError(w, http.StatusBadGateway, "candle fetch failed: "+err.Error())
		return
	}

	start := time.Now()
	result, err := backtest.Run(candles, cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if h.registry != nil {
		h.registry.BacktestsTotal.Inc()
		h.registry.BacktestDuration.Observe(time.Since(start).Seconds())
	}

	performance, err := backtest.CalculatePerformance(result)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := backtestResponse{Result: result, Performance: performance}
	verdict := ""
	if req.WalkForward {
		wf, err := backtest.WalkForward(candles, cfg, req.SplitRatio)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		resp.WalkForward = wf
		verdict = wf.Verdict
	}

	if h.backtests != nil {
		run, err := persistence.FromBacktest(req.Code, cfg, *performance, verdict)
		if err == nil {
			if err := h.backtests.Save(r.Context(), run); err != nil {
				log.Warn().Err(err).Str("code", req.Code).Msg("failed to persist backtest run")
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
