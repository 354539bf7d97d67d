package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/advisor/internal/advisory"
	"github.com/quantdesk/advisor/internal/backtest"
	"github.com/quantdesk/advisor/internal/data"
	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/fundamental"
	"github.com/quantdesk/advisor/internal/persistence"
	"github.com/quantdesk/advisor/internal/regime"
)

func dateFor(i int) string {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02")
}

// wobblyCandles alternates small up and down moves so return series have
// variance.
func wobblyCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	price := 10000.0
	for i := range candles {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.995
		}
		candles[i] = domain.Candle{
			Date: dateFor(i), Open: price, High: price * 1.01, Low: price * 0.99,
			Close: price, Volume: 1000,
		}
	}
	return candles
}

type stubFundamentals struct{ score int }

func (s stubFundamentals) Score(string, *float64, *float64) (fundamental.ScoreResult, error) {
	return fundamental.ScoreResult{Available: true, Score: s.score}, nil
}

type capturingBacktestRepo struct{ saved []*persistence.BacktestRun }

func (r *capturingBacktestRepo) Save(_ context.Context, run *persistence.BacktestRun) error {
	r.saved = append(r.saved, run)
	return nil
}

func (r *capturingBacktestRepo) Recent(context.Context, string, int) ([]persistence.BacktestRun, error) {
	return nil, nil
}

type capturingDecisionRepo struct{ saved []*persistence.DecisionRecord }

func (r *capturingDecisionRepo) Save(_ context.Context, record *persistence.DecisionRecord) error {
	r.saved = append(r.saved, record)
	return nil
}

func (r *capturingDecisionRepo) Recent(context.Context, string, int) ([]persistence.DecisionRecord, error) {
	return nil, nil
}

type harness struct {
	server    *Server
	backtests *capturingBacktestRepo
	decisions *capturingDecisionRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	source := data.CandleSourceFunc(func(code string, lookbackDays int) ([]domain.Candle, error) {
		if code == "MISSING" {
			return nil, fmt.Errorf("no data for %s", code)
		}
		return wobblyCandles(140), nil
	})

	indexSource := regime.IndexSourceFunc(func() ([]float64, error) {
		closes := make([]float64, 120)
		for i := range closes {
			closes[i] = 100 + 0.5*float64(i)
		}
		return closes, nil
	})
	detector := regime.NewDetector(indexSource, regime.DefaultDetectorConfig())

	engine, err := advisory.NewEngine(advisory.DefaultConfig(), detector, regime.NewDefensePolicy(),
		stubFundamentals{score: 80}, source, nil, nil)
	require.NoError(t, err)

	backtests := &capturingBacktestRepo{}
	decisions := &capturingDecisionRepo{}
	handlers := NewHandlers(engine, detector, backtest.DefaultStrategyConfig(),
		source, data.NewPortfolioFetcher(source, 3), nil, backtests, decisions, nil)

	server := NewServer(ServerConfig{Addr: ":0"}, handlers, nil)
	return &harness{server: server, backtests: backtests, decisions: decisions}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRegimeEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/v1/regime", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var state regime.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, regime.Bull, state.Regime)
}

func TestBacktestEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/backtest", map[string]interface{}{
		"code":          "005930",
		"lookback_days": 140,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp backtestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Performance)
	assert.Equal(t, 10_000_000.0, resp.Performance.InitialCapital)
	assert.Len(t, h.backtests.saved, 1)
}

func TestBacktestRequiresCode(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/backtest", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdviseBuyEndpointPersistsDecision(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/advisory/buy", map[string]interface{}{
		"code":            "005930",
		"current_price":   70000,
		"account_balance": 10000000,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var decision advisory.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Approved)
	require.Len(t, h.decisions.saved, 1)
	assert.Equal(t, decision.ID, h.decisions.saved[0].ID)
}

func TestPortfolioVaRExcludesFailedFetches(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/risk/var", map[string]interface{}{
		"holdings": []map[string]interface{}{
			{"code": "005930", "weight": 0.6},
			{"code": "MISSING", "weight": 0.4},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Excluded []string `json:"excluded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"MISSING"}, body.Excluded)
}

func TestConcentrationEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/risk/concentration", map[string]interface{}{
		"holdings": []map[string]interface{}{
			{"code": "005930", "name": "only", "quantity": 10, "current_price": 70000},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		HHI   int    `json:"hhi"`
		Level string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 10000, body.HHI)
	assert.Equal(t, "HIGHLY_CONCENTRATED", body.Level)
}

func TestPositionSizeEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/risk/position-size", map[string]interface{}{
		"code":            "005930",
		"account_balance": 10000000,
		"current_price":   70000,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		PositionSize float64 `json:"position_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Greater(t, body.PositionSize, 0.0)
}

func TestNotFoundIsJSON(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}
