package data

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantdesk/advisor/internal/domain"
)

func sampleCandles() []domain.Candle {
	return []domain.Candle{
		{Date: "2024-03-04", Open: 100, High: 105, Low: 95, Close: 102, Volume: 1000},
		{Date: "2024-03-05", Open: 102, High: 110, Low: 101, Close: 108, Volume: 1500},
	}
}

func countingSource(calls *int, candles []domain.Candle, err error) CandleSource {
	return CandleSourceFunc(func(string, int) ([]domain.Candle, error) {
		*calls++
		return candles, err
	})
}

func TestCachedSourceHitSkipsUpstream(t *testing.T) {
	client, mock := redismock.NewClientMock()
	candles := sampleCandles()
	payload, err := json.Marshal(candles)
	require.NoError(t, err)
	mock.ExpectGet("candles:005930:60").SetVal(string(payload))

	calls := 0
	source := NewCachedSource(countingSource(&calls, nil, nil), client, time.Minute)

	got, err := source.Fetch("005930", 60)

	require.NoError(t, err)
	assert.Equal(t, candles, got)
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSourceMissFetchesAndStores(t *testing.T) {
	client, mock := redismock.NewClientMock()
	candles := sampleCandles()
	payload, err := json.Marshal(candles)
	require.NoError(t, err)
	mock.ExpectGet("candles:005930:60").RedisNil()
	mock.ExpectSet("candles:005930:60", payload, time.Minute).SetVal("OK")

	calls := 0
	source := NewCachedSource(countingSource(&calls, candles, nil), client, time.Minute)

	got, err := source.Fetch("005930", 60)

	require.NoError(t, err)
	assert.Equal(t, candles, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSourceDegradesOnCacheError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	candles := sampleCandles()
	payload, err := json.Marshal(candles)
	require.NoError(t, err)
	mock.ExpectGet("candles:005930:60").SetErr(errors.New("connection refused"))
	mock.ExpectSet("candles:005930:60", payload, time.Minute).SetVal("OK")

	calls := 0
	source := NewCachedSource(countingSource(&calls, candles, nil), client, time.Minute)

	got, err := source.Fetch("005930", 60)

	require.NoError(t, err)
	assert.Equal(t, candles, got)
	assert.Equal(t, 1, calls)
}

func TestCachedSourcePropagatesUpstreamError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("candles:005930:60").RedisNil()

	calls := 0
	source := NewCachedSource(countingSource(&calls, nil, errors.New("upstream down")), client, time.Minute)

	_, err := source.Fetch("005930", 60)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
