package http

import (
	"net/http"

	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/risk"
)

type portfolioVaRRequest struct {
	Holdings []struct {
		Code   string  `json:"code"`
		Weight float64 `json:"weight"`
	} `json:"holdings"`
	LookbackDays int `json:"lookback_days"`
}

// PortfolioVaR fetches each holding's candles through the worker pool and
// computes weighted historical VaR. Holdings whose fetch fails are
// excluded rather than failing the request.
func (h *Handlers) PortfolioVaR(w http.ResponseWriter, r *http.Request) {
	var req portfolioVaRRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Holdings) == 0 {
		writeError(w, http.StatusBadRequest, "holdings are required")
		return
	}
	if req.LookbackDays <= 0 {
		req.LookbackDays = 250
	}

	codes := make([]string, 0, len(req.Holdings))
	for _, holding := range req.Holdings {
		codes = append(codes, holding.Code)
	}
	fetched := h.fetcher.FetchAll(codes, req.LookbackDays)

	holdings := make([]risk.HoldingReturns, 0, len(req.Holdings))
	excluded := make([]string, 0)
	for _, holding := range req.Holdings {
		result := fetched[holding.Code]
		if result.Err != nil {
			excluded = append(excluded, holding.Code)
			continue
		}
		holdings = append(holdings, risk.HoldingReturns{
			Code:         holding.Code,
			Weight:       holding.Weight,
			DailyReturns: domain.DailyReturns(domain.Closes(result.Candles)),
		})
	}

	varResult := risk.CalculatePortfolioVaR(holdings)
	if varResult == nil {
		writeError(w, http.StatusUnprocessableEntity, "insufficient return data for VaR")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"var":      varResult,
		"excluded": excluded,
	})
}

type concentrationRequest struct {
	Holdings []domain.Holding `json:"holdings"`
}

// Concentration analyzes portfolio concentration from holdings.
func (h *Handlers) Concentration(w http.ResponseWriter, r *http.Request) {
	var req concentrationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	values := make([]risk.HoldingValue, 0, len(req.Holdings))
	for _, holding := range req.Holdings {
		values = append(values, risk.HoldingValue{
			Code:  holding.Code,
			Name:  holding.Name,
			Value: holding.Value(),
		})
	}

	writeJSON(w, http.StatusOK, risk.AnalyzeConcentration(values, h.sectors))
}

type correlationRequest struct {
	Codes        []string `json:"codes"`
	LookbackDays int      `json:"lookback_days"`
}

// Correlation builds the pairwise correlation matrices for a set of
// instruments.
func (h *Handlers) Correlation(w http.ResponseWriter, r *http.Request) {
	var req correlationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Codes) < 2 {
		writeError(w, http.StatusBadRequest, "at least two codes are required")
		return
	}
	if req.LookbackDays <= 0 {
		req.LookbackDays = 250
	}

	fetched := h.fetcher.FetchAll(req.Codes, req.LookbackDays)
	stocks := make([]risk.StockReturns, 0, len(req.Codes))
	for _, code := range req.Codes {
		result := fetched[code]
		if result.Err != nil {
			continue
		}
		stocks = append(stocks, risk.StockReturns{
			Code:         code,
			DailyReturns: domain.DailyReturns(domain.Closes(result.Candles)),
		})
	}

	matrix := risk.BuildCorrelationMatrix(stocks)
	if matrix == nil {
		writeError(w, http.StatusUnprocessableEntity, "fewer than two instruments with data")
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

type positionSizeRequest struct {
	Code            string   `json:"code"`
	AccountBalance  float64  `json:"account_balance"`
	CurrentPrice    float64  `json:"current_price"`
	WinRate         *float64 `json:"win_rate,omitempty"`
	AvgWinLossRatio *float64 `json:"avg_win_loss_ratio,omitempty"`
	LookbackDays    int      `json:"lookback_days"`
}

// PositionSize runs the Half-Kelly/ATR sizer for one instrument.
func (h *Handlers) PositionSize(w http.ResponseWriter, r *http.Request) {
	var req positionSizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AccountBalance <= 0 {
		writeError(w, http.StatusBadRequest, "account_balance must be positive")
		return
	}
	if req.LookbackDays <= 0 {
		req.LookbackDays = 60
	}

	var candles []domain.Candle
	if req.Code != "" {
		if fetched, err := h.candles.Fetch(req.Code, req.LookbackDays); err == nil {
			candles = fetched
		}
	}

	result := risk.CalculatePositionSize(risk.SizingInputs{
		AccountBalance:   req.AccountBalance,
		DefaultBuyAmount: h.strategy.BuyAmount,
		WinRate:          req.WinRate,
		AvgWinLossRatio:  req.AvgWinLossRatio,
		Candles:          candles,
		CurrentPrice:     req.CurrentPrice,
	})
	writeJSON(w, http.StatusOK, result)
}
