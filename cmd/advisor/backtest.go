package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantdesk/advisor/internal/backtest"
)

func backtestCmd(configPath *string) *cobra.Command {
	var (
		code         string
		lookbackDays int
		walkForward  bool
		splitRatio   float64
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the trading strategy simulation for one instrument",
		Long:  "Simulates the configured strategy over historical candles and reports performance metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" {
				return fmt.Errorf("--code is required")
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			candles, err := app.source.Fetch(code, lookbackDays)
			if err != nil {
				return fmt.Errorf("candle fetch failed: %w", err)
			}

			cfg := app.cfg.Strategy
			result, err := backtest.Run(candles, cfg)
			if err != nil {
				return err
			}
			performance, err := backtest.CalculatePerformance(result)
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"result":      result,
				"performance": performance,
			}
			if walkForward {
				wf, err := backtest.WalkForward(candles, cfg, splitRatio)
				if err != nil {
					return err
				}
				out["walk_forward"] = wf
			}
			return printJSON(out)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Instrument code (required)")
	cmd.Flags().IntVar(&lookbackDays, "days", 250, "Candle lookback window")
	cmd.Flags().BoolVar(&walkForward, "walk-forward", false, "Run walk-forward validation")
	cmd.Flags().Float64Var(&splitRatio, "split", 0.7, "In-sample split ratio for walk-forward")
	return cmd
}
