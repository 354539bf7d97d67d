package data

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantdesk/advisor/internal/domain"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPSource fetches daily candles from a market-data HTTP API. The
// provider is expected to serve GET {base}/candles/{code}?days=N with a
// JSON array of candles ordered ascending by date.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates an API-backed candle source. A nil client gets a
// default with a request timeout.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPSource{base: strings.TrimRight(baseURL, "/"), client: client}
}

// Fetch implements CandleSource.
func (s *HTTPSource) Fetch(code string, lookbackDays int) ([]domain.Candle, error) {
	endpoint := fmt.Sprintf("%s/candles/%s?days=%s",
		s.base, url.PathEscape(code), strconv.Itoa(lookbackDays))

	resp, err := s.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("candle fetch for %s failed: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candle fetch for %s returned status %d", code, resp.StatusCode)
	}

	var candles []domain.Candle
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return nil, fmt.Errorf("failed to decode candles for %s: %w", code, err)
	}
	return candles, nil
}
