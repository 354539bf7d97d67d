package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/advisory"
	"github.com/quantdesk/advisor/internal/config"
	"github.com/quantdesk/advisor/internal/data"
	"github.com/quantdesk/advisor/internal/fundamental"
	"github.com/quantdesk/advisor/internal/metrics"
	"github.com/quantdesk/advisor/internal/regime"
	"github.com/quantdesk/advisor/internal/risk"
)

// app holds the wired component graph shared by all subcommands.
type app struct {
	cfg      config.Config
	source   data.CandleSource
	fetcher  *data.PortfolioFetcher
	detector *regime.Detector
	policy   *regime.DefensePolicy
	engine   *advisory.Engine
	sectors  risk.SectorLookup
}

// newApp loads configuration and wires the component graph. The Redis
// candle cache is only attached for long-running commands; one-shot CLI
// invocations go straight to the upstream. A nil registry skips data
// layer instrumentation.
func newApp(configPath string, withCache bool, registry *metrics.Registry) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyLogging(cfg.Logging)

	var upstream data.CandleSource
	if cfg.Data.BaseURL != "" {
		upstream = data.NewHTTPSource(cfg.Data.BaseURL, nil)
	} else {
		upstream = data.NewFileSource(cfg.Data.CandleDir)
	}

	var source data.CandleSource = data.NewGuardedSource(upstream, data.GuardConfig{
		RequestsPerSec:   cfg.Data.RequestsPerSec,
		Burst:            cfg.Data.Burst,
		FailureThreshold: cfg.Data.FailureThreshold,
		Cooldown:         cfg.Data.BreakerCooldown,
		RequestTimeout:   cfg.Data.RequestTimeout,
	})
	if withCache && cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cached := data.NewCachedSource(source, client, cfg.Redis.CacheTTL)
		if registry != nil {
			cached.WithCounters(registry.CacheHits, registry.CacheMisses)
		}
		source = cached
	}

	detector := regime.NewDetector(
		regime.IndexSourceFunc(data.IndexCloses(source, cfg.Regime.IndexCode, 250)),
		cfg.Regime.Detector,
	)

	policy := regime.NewDefensePolicy()
	for _, preset := range cfg.Regime.Presets {
		if err := policy.SetPreset(preset); err != nil {
			return nil, fmt.Errorf("regime preset: %w", err)
		}
	}

	sectorFunc := func(code string) string {
		if sector, ok := cfg.Sectors[code]; ok {
			return sector
		}
		return fundamental.DefaultSector
	}
	sectors := risk.SectorLookupFunc(sectorFunc)

	scorer := fundamental.NewScorer(
		data.NewFileStatementSource(cfg.Data.StatementDir), sectorFunc, nil)

	var factors advisory.FactorSignalSource
	if cfg.Data.FactorRankings != "" {
		factors = data.NewFactorFileSource(cfg.Data.FactorRankings)
	}

	engine, err := advisory.NewEngine(cfg.Advisory, detector, policy, scorer, source, factors, sectors)
	if err != nil {
		return nil, fmt.Errorf("advisory engine: %w", err)
	}

	fetcher := data.NewPortfolioFetcher(source, cfg.Data.Workers)
	if registry != nil {
		fetcher.WithErrorCounter(registry.FetchErrors)
	}

	return &app{
		cfg:      cfg,
		source:   source,
		fetcher:  fetcher,
		detector: detector,
		policy:   policy,
		engine:   engine,
		sectors:  sectors,
	}, nil
}

func applyLogging(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// printJSON writes the command result to stdout for piping.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
