// Package metrics exposes the advisor's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all advisor metrics.
type Registry struct {
	Decisions          *prometheus.CounterVec
	DecisionConfidence *prometheus.HistogramVec
	BacktestDuration   prometheus.Histogram
	BacktestsTotal     prometheus.Counter
	RegimeSwitches     *prometheus.CounterVec
	ActiveRegime       *prometheus.GaugeVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	FetchErrors        *prometheus.CounterVec
}

// NewRegistry creates the advisor metrics set.
func NewRegistry() *Registry {
	return &Registry{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_decisions_total",
				Help: "Advisory decisions by side and outcome",
			},
			[]string{"side", "outcome", "reason_code"},
		),
		DecisionConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_decision_confidence",
				Help:    "Fused confidence of advisory decisions",
				Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
			[]string{"side"},
		),
		BacktestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_backtest_duration_seconds",
				Help:    "Wall time of backtest simulations",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),
		BacktestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_backtests_total",
				Help: "Total backtest simulations run",
			},
		),
		RegimeSwitches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_regime_switches_total",
				Help: "Confirmed regime transitions by from/to regime",
			},
			[]string{"from", "to"},
		),
		ActiveRegime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "advisor_active_regime",
				Help: "Currently confirmed regime (1 for active, 0 otherwise)",
			},
			[]string{"regime"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_candle_cache_hits_total",
				Help: "Candle cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "advisor_candle_cache_misses_total",
				Help: "Candle cache misses",
			},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_fetch_errors_total",
				Help: "Upstream fetch errors by instrument",
			},
			[]string{"code"},
		),
	}
}

// Register registers every metric with the given registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.Decisions,
		r.DecisionConfidence,
		r.BacktestDuration,
		r.BacktestsTotal,
		r.RegimeSwitches,
		r.ActiveRegime,
		r.CacheHits,
		r.CacheMisses,
		r.FetchErrors,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveDecision records one advisory decision.
func (r *Registry) ObserveDecision(side, reasonCode string, approved bool, confidence *float64) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	r.Decisions.WithLabelValues(side, outcome, reasonCode).Inc()
	if confidence != nil {
		r.DecisionConfidence.WithLabelValues(side).Observe(*confidence)
	}
}

// SetActiveRegime marks one regime active and the rest inactive.
func (r *Registry) SetActiveRegime(regime string, all []string) {
	for _, candidate := range all {
		value := 0.0
		if candidate == regime {
			value = 1.0
		}
		r.ActiveRegime.WithLabelValues(candidate).Set(value)
	}
}
