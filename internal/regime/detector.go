// Package regime classifies the broad market regime from an index close
// series and gates buying through a per-regime defense policy. The
// detector is the only stateful component in the engine: confirmed and
// pending regimes persist across calls and all access is serialized
// through a single mutex.
package regime

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
)

// Regime classifications, ordered by bear-signal count.
const (
	Bull    = "BULL"
	Neutral = "NEUTRAL"
	Bear    = "BEAR"
	Crisis  = "CRISIS"
)

var regimeByBearCount = [4]string{Bull, Neutral, Bear, Crisis}

// All lists every regime classification.
func All() []string {
	return []string{Bull, Neutral, Bear, Crisis}
}

const (
	// minIndexBars is the smallest index series the signal ensemble runs
	// on; shorter series fall back to NEUTRAL.
	minIndexBars = 61

	defaultCacheTTL = 5 * time.Minute

	tradingDaysPerYear = 252
)

// IndexSource supplies the market index close series, most recent last.
type IndexSource interface {
	IndexCloses() ([]float64, error)
}

// IndexSourceFunc adapts a function to the IndexSource interface.
type IndexSourceFunc func() ([]float64, error)

// IndexCloses implements IndexSource.
func (f IndexSourceFunc) IndexCloses() ([]float64, error) { return f() }

// DetectorConfig holds the ensemble thresholds and hysteresis depth.
type DetectorConfig struct {
	VolThreshold float64       `yaml:"vol_threshold"` // annualized %, default 25
	MomThreshold float64       `yaml:"mom_threshold"` // percent, default -10
	ConfirmDays  int           `yaml:"confirm_days"`  // default 2
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// DefaultDetectorConfig returns the stock detector thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		VolThreshold: 25,
		MomThreshold: -10,
		ConfirmDays:  2,
		CacheTTL:     defaultCacheTTL,
	}
}

// Signals carries the three bearish ensemble votes and their inputs.
type Signals struct {
	MACross bool     `json:"ma_cross"`
	HighVol bool     `json:"high_vol"`
	NegMom  bool     `json:"neg_mom"`
	MA20    *float64 `json:"ma20,omitempty"`
	MA60    *float64 `json:"ma60,omitempty"`
	Vol20d  *float64 `json:"vol_20d,omitempty"`
	Mom60d  *float64 `json:"mom_60d,omitempty"`
}

// PendingTransition exposes an in-progress regime change that has not yet
// accumulated enough distinct-day confirmations.
type PendingTransition struct {
	Regime   string `json:"regime"`
	Count    int    `json:"count"`
	Required int    `json:"required"`
}

// State is the externally visible detection result. Regime is the
// confirmed regime after hysteresis; RawRegime is what the ensemble voted
// this call; Pending, when set, tracks a transition in progress.
type State struct {
	Regime    string             `json:"regime"`
	RawRegime string             `json:"raw_regime"`
	BearCount int                `json:"bear_count"`
	Signals   Signals            `json:"signals"`
	Pending   *PendingTransition `json:"pending,omitempty"`
	Fallback  bool               `json:"fallback,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Detector runs the 3-signal bear ensemble with confirm-days hysteresis.
// Safe for concurrent use; every call serializes on the internal mutex.
type Detector struct {
	mu     sync.Mutex
	config DetectorConfig
	source IndexSource
	now    func() time.Time

	cached    *State
	cacheTime time.Time

	confirmedRegime string
	pendingRegime   string
	pendingDate     string // YYYY-MM-DD of the last counted confirmation
	pendingCount    int
}

// NewDetector creates a detector over the given index source.
func NewDetector(source IndexSource, config DetectorConfig) *Detector {
	if config.ConfirmDays <= 0 {
		config.ConfirmDays = 2
	}
	if config.VolThreshold == 0 {
		config.VolThreshold = 25
	}
	if config.MomThreshold == 0 {
		config.MomThreshold = -10
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaultCacheTTL
	}
	return &Detector{
		config: config,
		source: source,
		now:    time.Now,
	}
}

// Detect classifies the current regime, applying confirm-days hysteresis
// before a raw change becomes the reported regime. CRISIS transitions
// immediately. Results are cached for the configured TTL.
func (d *Detector) Detect() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.cached != nil && now.Sub(d.cacheTime) < d.config.CacheTTL {
		return *d.cached
	}

	closes, err := d.source.IndexCloses()
	if err != nil || len(closes) < minIndexBars {
		if err != nil {
			log.Warn().Err(err).Msg("regime: index fetch failed, NEUTRAL fallback")
		} else {
			log.Warn().Int("bars", len(closes)).Msg("regime: insufficient index data, NEUTRAL fallback")
		}
		state := State{Regime: Neutral, RawRegime: Neutral, Fallback: true, Timestamp: now}
		d.cached = &state
		d.cacheTime = now
		return state
	}

	signals, bearCount := d.evaluateSignals(closes)
	rawRegime := regimeByBearCount[bearCount]
	regime := d.applyHysteresis(rawRegime, now)

	log.Info().
		Str("regime", regime).
		Str("raw", rawRegime).
		Int("bear_count", bearCount).
		Bool("ma_cross", signals.MACross).
		Bool("high_vol", signals.HighVol).
		Bool("neg_mom", signals.NegMom).
		Msg("regime detection")

	state := State{
		Regime:    regime,
		RawRegime: rawRegime,
		BearCount: bearCount,
		Signals:   signals,
		Timestamp: now,
	}
	if d.pendingRegime != "" {
		state.Pending = &PendingTransition{
			Regime:   d.pendingRegime,
			Count:    d.pendingCount,
			Required: d.config.ConfirmDays,
		}
	}
	d.cached = &state
	d.cacheTime = now
	return state
}

// applyHysteresis advances the confirm-days state machine and returns the
// regime to report. Caller holds the mutex.
func (d *Detector) applyHysteresis(rawRegime string, now time.Time) string {
	today := now.Format("2006-01-02")

	if d.confirmedRegime == "" {
		d.confirmedRegime = rawRegime
	}

	switch {
	case rawRegime == d.confirmedRegime:
		// Regime holds; abandon any pending transition.
		d.clearPending()

	case rawRegime == Crisis:
		// No confirmation delay on the way into CRISIS.
		log.Warn().Msg("regime: immediate CRISIS transition")
		d.confirmedRegime = Crisis
		d.clearPending()

	case rawRegime == d.pendingRegime:
		// Same pending regime seen again; only distinct calendar days count.
		if today != d.pendingDate {
			d.pendingCount++
			d.pendingDate = today
		}
		if d.pendingCount >= d.config.ConfirmDays {
			log.Info().Str("regime", rawRegime).Int("days", d.config.ConfirmDays).Msg("regime transition confirmed")
			d.confirmedRegime = rawRegime
			d.clearPending()
		}

	default:
		// New pending transition starts counting today.
		d.pendingRegime = rawRegime
		d.pendingDate = today
		d.pendingCount = 1
	}
	return d.confirmedRegime
}

func (d *Detector) clearPending() {
	d.pendingRegime = ""
	d.pendingDate = ""
	d.pendingCount = 0
}

// evaluateSignals computes the three bearish votes. Caller holds the mutex.
func (d *Detector) evaluateSignals(closes []float64) (Signals, int) {
	ma20 := sma(closes, 20)
	ma60 := sma(closes, 60)
	vol := realizedVol(closes, 20)
	mom := momentum(closes, 60)

	signals := Signals{}
	bearCount := 0

	if ma20 != nil && ma60 != nil {
		signals.MACross = *ma20 < *ma60
	}
	if signals.MACross {
		bearCount++
	}
	if vol != nil {
		signals.HighVol = *vol > d.config.VolThreshold
	}
	if signals.HighVol {
		bearCount++
	}
	if mom != nil {
		signals.NegMom = *mom < d.config.MomThreshold
	}
	if signals.NegMom {
		bearCount++
	}

	signals.MA20 = round2Ptr(ma20)
	signals.MA60 = round2Ptr(ma60)
	signals.Vol20d = round2Ptr(vol)
	signals.Mom60d = round2Ptr(mom)
	return signals, bearCount
}

// ClearCache invalidates the memoized state only. Pending-transition
// counters survive: they belong to the slower-moving hysteresis machine
// underneath the cache, and resetting them on every data refresh would
// defeat confirm-days.
func (d *Detector) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
	d.cacheTime = time.Time{}
}

// Reset clears both the cache and all hysteresis state.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
	d.cacheTime = time.Time{}
	d.confirmedRegime = ""
	d.clearPending()
}

func sma(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	sum := 0.0
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	avg := sum / float64(period)
	return &avg
}

// realizedVol is the annualized stddev of the trailing period log returns,
// in percent.
func realizedVol(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	rets := make([]float64, 0, period)
	for i := len(closes) - period; i < len(closes); i++ {
		if closes[i-1] > 0 {
			rets = append(rets, math.Log(closes[i]/closes[i-1]))
		}
	}
	if len(rets) < 10 {
		return nil
	}
	avg := 0.0
	for _, r := range rets {
		avg += r
	}
	avg /= float64(len(rets))
	variance := 0.0
	for _, r := range rets {
		variance += (r - avg) * (r - avg)
	}
	variance /= float64(len(rets))
	vol := math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100
	return &vol
}

// momentum is the percent change over the trailing lookback.
func momentum(closes []float64, lookback int) *float64 {
	if len(closes) < lookback+1 {
		return nil
	}
	prev := closes[len(closes)-1-lookback]
	if prev <= 0 {
		return nil
	}
	mom := (closes[len(closes)-1] - prev) / prev * 100
	return &mom
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := domain.Round2(*v)
	return &r
}
