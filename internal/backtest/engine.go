// Package backtest replays a daily candle series against the confluence
// signal generator with a single-position ledger, and scores the outcome.
package backtest

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/domain/signals"
)

// Trade types.
const (
	TradeBuy         = "BUY"
	TradeSell        = "SELL"
	TradePartialSell = "PARTIAL_SELL"
)

// warmupBars are consumed as indicator lookback before the first signal.
const warmupBars = 60

// PartialSellLevel sells a fraction of the open position once the
// cumulative profit rate reaches ProfitRate. Each level fires at most once
// per open position.
type PartialSellLevel struct {
	ProfitRate float64 `json:"profit_rate" yaml:"profit_rate"`
	SellRatio  float64 `json:"sell_ratio" yaml:"sell_ratio"`
}

// StrategyConfig is a recognized-options record: every field is
// independently defaultable and unknown keys in the serialized form are
// ignored by the YAML/JSON decoders.
type StrategyConfig struct {
	InitialCapital         float64            `json:"initial_capital" yaml:"initial_capital"`
	BuyAmount              float64            `json:"buy_amount" yaml:"buy_amount"`
	StopLoss               float64            `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit             float64            `json:"take_profit" yaml:"take_profit"`
	Slippage               float64            `json:"slippage" yaml:"slippage"`
	Commission             float64            `json:"commission" yaml:"commission"`
	RequiredBuyConditions  int                `json:"required_buy_conditions" yaml:"required_buy_conditions"`
	RequiredSellConditions int                `json:"required_sell_conditions" yaml:"required_sell_conditions"`
	PartialSellLevels      []PartialSellLevel `json:"partial_sell_levels" yaml:"partial_sell_levels"`
}

// DefaultStrategyConfig returns the stock strategy parameters.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		InitialCapital:         10_000_000,
		BuyAmount:              500_000,
		StopLoss:               -0.05,
		TakeProfit:             0.10,
		Slippage:               0.001,
		Commission:             0.00015,
		RequiredBuyConditions:  signals.DefaultRequiredBuyConditions,
		RequiredSellConditions: signals.DefaultRequiredSellConditions,
		PartialSellLevels: []PartialSellLevel{
			{ProfitRate: 0.05, SellRatio: 0.3},
			{ProfitRate: 0.10, SellRatio: 0.3},
			{ProfitRate: 0.15, SellRatio: 0.4},
		},
	}
}

// withDefaults fills unset options from the stock configuration.
func (c StrategyConfig) withDefaults() StrategyConfig {
	def := DefaultStrategyConfig()
	if c.InitialCapital == 0 {
		c.InitialCapital = def.InitialCapital
	}
	if c.BuyAmount == 0 {
		c.BuyAmount = def.BuyAmount
	}
	if c.StopLoss == 0 {
		c.StopLoss = def.StopLoss
	}
	if c.TakeProfit == 0 {
		c.TakeProfit = def.TakeProfit
	}
	if c.Slippage == 0 {
		c.Slippage = def.Slippage
	}
	if c.Commission == 0 {
		c.Commission = def.Commission
	}
	if c.RequiredBuyConditions == 0 {
		c.RequiredBuyConditions = def.RequiredBuyConditions
	}
	if c.RequiredSellConditions == 0 {
		c.RequiredSellConditions = def.RequiredSellConditions
	}
	if c.PartialSellLevels == nil {
		c.PartialSellLevels = def.PartialSellLevels
	}
	return c
}

// Validate reports configuration errors synchronously, before any
// simulation work happens.
func (c StrategyConfig) Validate() error {
	if c.InitialCapital < 0 {
		return fmt.Errorf("initial_capital must be non-negative, got %v", c.InitialCapital)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("slippage must be in [0,1), got %v", c.Slippage)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("commission must be in [0,1), got %v", c.Commission)
	}
	for i, level := range c.PartialSellLevels {
		if level.SellRatio <= 0 || level.SellRatio >= 1 {
			return fmt.Errorf("partial_sell_levels[%d].sell_ratio must be in (0,1), got %v", i, level.SellRatio)
		}
	}
	return nil
}

// Trade is one executed leg, immutable once appended to the result.
type Trade struct {
	Type       string  `json:"type"`
	Date       string  `json:"date"`
	Quantity   int64   `json:"quantity"`
	Price      float64 `json:"price"`
	ProfitRate float64 `json:"profit_rate,omitempty"` // percent, SELL/PARTIAL_SELL only
	Reason     string  `json:"reason,omitempty"`
}

// EquityPoint is the mark-to-market account value on one simulated day.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Result is the simulator output consumed by the performance calculator.
type Result struct {
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
	FinalValue     float64       `json:"final_value"`
	InitialCapital float64       `json:"initial_capital"`
}

// position is the simulator-internal open-position state. The firedLevels
// set is keyed by the rounded profit-rate label of each partial-sell level
// and is discarded when the position closes.
type position struct {
	quantity    int64
	avgPrice    float64
	buyDate     string
	firedLevels map[string]bool
}

// Run simulates the strategy day by day over candles. The first warmupBars
// bars only feed indicator lookback. Slippage always works against the
// trader and commission is charged per leg. Two runs over identical inputs
// produce identical outputs.
func Run(candles []domain.Candle, cfg StrategyConfig) (*Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles to simulate")
	}

	cash := cfg.InitialCapital
	var pos *position
	trades := make([]Trade, 0)
	equityCurve := make([]EquityPoint, 0, len(candles))
	thresholds := signals.Thresholds{
		RequiredBuyConditions:  cfg.RequiredBuyConditions,
		RequiredSellConditions: cfg.RequiredSellConditions,
	}

	for i := warmupBars; i < len(candles); i++ {
		candle := candles[i]
		price := candle.Close

		positionValue := 0.0
		if pos != nil {
			positionValue = float64(pos.quantity) * price
		}
		equityCurve = append(equityCurve, EquityPoint{Date: candle.Date, Value: cash + positionValue})

		sig := signals.Generate(candles, i, thresholds)

		if pos != nil {
			profitRate := (price - pos.avgPrice) / pos.avgPrice

			// Partial sells, in configuration order, each at most once
			// per open position.
			for _, level := range cfg.PartialSellLevels {
				levelID := fmt.Sprintf("L%d", int(math.Round(level.ProfitRate*100)))
				if profitRate < level.ProfitRate || pos.firedLevels[levelID] {
					continue
				}
				sellQty := int64(math.Floor(float64(pos.quantity) * level.SellRatio))
				if sellQty < 1 {
					sellQty = 1
				}
				if pos.quantity <= sellQty {
					// Would close or invert the position; leave the
					// remainder to the full-exit rules.
					continue
				}
				execPrice := price * (1 - cfg.Slippage)
				cash += float64(sellQty) * execPrice * (1 - cfg.Commission)
				pos.quantity -= sellQty
				pos.firedLevels[levelID] = true
				trades = append(trades, Trade{
					Type:       TradePartialSell,
					Date:       candle.Date,
					Quantity:   sellQty,
					Price:      math.Round(execPrice),
					ProfitRate: domain.Round2(profitRate * 100),
					Reason:     fmt.Sprintf("partial take-profit +%d%%", int(math.Round(level.ProfitRate*100))),
				})
			}

			isStopLoss := profitRate <= cfg.StopLoss
			isTakeProfit := profitRate >= cfg.TakeProfit
			if isStopLoss || isTakeProfit || sig.Signal == signals.SignalSell {
				execPrice := price * (1 - cfg.Slippage)
				cash += float64(pos.quantity) * execPrice * (1 - cfg.Commission)
				reason := "signal exit"
				if isStopLoss {
					reason = "stop loss"
				} else if isTakeProfit {
					reason = "take profit"
				}
				trades = append(trades, Trade{
					Type:       TradeSell,
					Date:       candle.Date,
					Quantity:   pos.quantity,
					Price:      math.Round(execPrice),
					ProfitRate: domain.Round2(profitRate * 100),
					Reason:     reason,
				})
				pos = nil
			}
		}

		if pos == nil && sig.Signal == signals.SignalBuy {
			execPrice := price * (1 + cfg.Slippage)
			cost := cfg.BuyAmount * (1 + cfg.Commission)
			if cash >= cost {
				qty := int64(math.Floor(cfg.BuyAmount / execPrice))
				if qty >= 1 {
					cash -= float64(qty) * execPrice * (1 + cfg.Commission)
					pos = &position{
						quantity:    qty,
						avgPrice:    execPrice,
						buyDate:     candle.Date,
						firedLevels: make(map[string]bool),
					}
					trades = append(trades, Trade{
						Type:     TradeBuy,
						Date:     candle.Date,
						Quantity: qty,
						Price:    math.Round(execPrice),
					})
				}
			}
		}
	}

	lastPrice := candles[len(candles)-1].Close
	finalValue := cash
	if pos != nil {
		finalValue += float64(pos.quantity) * lastPrice
	}

	log.Debug().
		Int("trades", len(trades)).
		Int("equity_points", len(equityCurve)).
		Float64("final_value", finalValue).
		Msg("backtest complete")

	return &Result{
		Trades:         trades,
		EquityCurve:    equityCurve,
		FinalValue:     finalValue,
		InitialCapital: cfg.InitialCapital,
	}, nil
}
