package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

const defaultCandleTTL = 10 * time.Minute

// CachedSource is a read-through Redis cache in front of a CandleSource.
// Cache failures degrade to a direct fetch; they never fail the request.
type CachedSource struct {
	upstream CandleSource
	client   redis.Cmdable
	ttl      time.Duration
	hits     prometheus.Counter
	misses   prometheus.Counter
}

// NewCachedSource wraps upstream with a Redis candle cache.
func NewCachedSource(upstream CandleSource, client redis.Cmdable, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = defaultCandleTTL
	}
	return &CachedSource{upstream: upstream, client: client, ttl: ttl}
}

// WithCounters attaches hit/miss counters; nil counters are not recorded.
func (c *CachedSource) WithCounters(hits, misses prometheus.Counter) *CachedSource {
	c.hits, c.misses = hits, misses
	return c
}

func candleKey(code string, lookbackDays int) string {
	return fmt.Sprintf("candles:%s:%d", code, lookbackDays)
}

// Fetch implements CandleSource.
func (c *CachedSource) Fetch(code string, lookbackDays int) ([]domain.Candle, error) {
	ctx := context.Background()
	key := candleKey(code, lookbackDays)

	if payload, err := c.client.Get(ctx, key).Result(); err == nil {
		var candles []domain.Candle
		if err := json.Unmarshal([]byte(payload), &candles); err == nil {
			if c.hits != nil {
				c.hits.Inc()
			}
			return candles, nil
		}
		log.Warn().Str("key", key).Msg("corrupt cache entry, refetching")
	} else if err != redis.Nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed, fetching direct")
	}
	if c.misses != nil {
		c.misses.Inc()
	}

	candles, err := c.upstream.Fetch(code, lookbackDays)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(candles); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return candles, nil
}
