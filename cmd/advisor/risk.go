package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quantdesk/advisor/internal/domain"
	"github.com/quantdesk/advisor/internal/risk"
)

func riskCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Portfolio risk analytics",
	}
	cmd.AddCommand(riskVaRCmd(configPath))
	cmd.AddCommand(riskCorrelationCmd(configPath))
	cmd.AddCommand(riskConcentrationCmd(configPath))
	cmd.AddCommand(riskPositionSizeCmd(configPath))
	return cmd
}

func splitCodes(s string) []string {
	parts := strings.Split(s, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

func riskVaRCmd(configPath *string) *cobra.Command {
	var (
		codesFlag    string
		lookbackDays int
	)

	cmd := &cobra.Command{
		Use:   "var",
		Short: "Historical VaR / CVaR for an equal-weighted portfolio",
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := splitCodes(codesFlag)
			if len(codes) == 0 {
				return fmt.Errorf("--codes is required")
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			fetched := app.fetcher.FetchAll(codes, lookbackDays)
			weight := 1.0 / float64(len(codes))
			holdings := make([]risk.HoldingReturns, 0, len(codes))
			for _, code := range codes {
				result := fetched[code]
				if result.Err != nil {
					return fmt.Errorf("candle fetch for %s failed: %w", code, result.Err)
				}
				holdings = append(holdings, risk.HoldingReturns{
					Code:         code,
					Weight:       weight,
					DailyReturns: domain.DailyReturns(domain.Closes(result.Candles)),
				})
			}

			varResult := risk.CalculatePortfolioVaR(holdings)
			if varResult == nil {
				return fmt.Errorf("insufficient return history for VaR")
			}
			return printJSON(varResult)
		},
	}

	cmd.Flags().StringVar(&codesFlag, "codes", "", "Comma-separated instrument codes (required)")
	cmd.Flags().IntVar(&lookbackDays, "days", 250, "Candle lookback window")
	return cmd
}

func riskCorrelationCmd(configPath *string) *cobra.Command {
	var (
		codesFlag    string
		lookbackDays int
	)

	cmd := &cobra.Command{
		Use:   "correlation",
		Short: "Pairwise return correlation matrices",
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := splitCodes(codesFlag)
			if len(codes) < 2 {
				return fmt.Errorf("--codes needs at least two instruments")
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			fetched := app.fetcher.FetchAll(codes, lookbackDays)
			stocks := make([]risk.StockReturns, 0, len(codes))
			for _, code := range codes {
				result := fetched[code]
				if result.Err != nil {
					return fmt.Errorf("candle fetch for %s failed: %w", code, result.Err)
				}
				stocks = append(stocks, risk.StockReturns{
					Code:         code,
					DailyReturns: domain.DailyReturns(domain.Closes(result.Candles)),
				})
			}

			correlation := risk.BuildCorrelationMatrix(stocks)
			if correlation == nil {
				return fmt.Errorf("insufficient return history for correlation")
			}
			return printJSON(correlation)
		},
	}

	cmd.Flags().StringVar(&codesFlag, "codes", "", "Comma-separated instrument codes (required)")
	cmd.Flags().IntVar(&lookbackDays, "days", 250, "Candle lookback window")
	return cmd
}

func riskConcentrationCmd(configPath *string) *cobra.Command {
	var holdingsPath string

	cmd := &cobra.Command{
		Use:   "concentration",
		Short: "HHI concentration analysis over a holdings file",
		Long:  "Reads a JSON array of holdings (code, name, quantity, current_price) and reports HHI, sector weights and warnings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if holdingsPath == "" {
				return fmt.Errorf("--holdings is required")
			}

			raw, err := os.ReadFile(holdingsPath)
			if err != nil {
				return fmt.Errorf("failed to read holdings: %w", err)
			}
			var holdings []domain.Holding
			if err := json.Unmarshal(raw, &holdings); err != nil {
				return fmt.Errorf("failed to parse holdings: %w", err)
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			values := make([]risk.HoldingValue, 0, len(holdings))
			for _, h := range holdings {
				values = append(values, risk.HoldingValue{Code: h.Code, Name: h.Name, Value: h.Value()})
			}
			return printJSON(risk.AnalyzeConcentration(values, app.sectors))
		},
	}

	cmd.Flags().StringVar(&holdingsPath, "holdings", "", "Path to holdings JSON (required)")
	return cmd
}

func riskPositionSizeCmd(configPath *string) *cobra.Command {
	var (
		code         string
		balance      float64
		price        float64
		winRate      float64
		winLossRatio float64
		lookbackDays int
	)

	cmd := &cobra.Command{
		Use:   "position-size",
		Short: "Half-Kelly and ATR position sizing for one instrument",
		RunE: func(cmd *cobra.Command, args []string) error {
			if balance <= 0 {
				return fmt.Errorf("--balance must be positive")
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			var candles []domain.Candle
			if code != "" {
				if fetched, err := app.source.Fetch(code, lookbackDays); err == nil {
					candles = fetched
				}
			}

			inputs := risk.SizingInputs{
				AccountBalance:   balance,
				DefaultBuyAmount: app.cfg.Strategy.BuyAmount,
				Candles:          candles,
				CurrentPrice:     price,
			}
			if cmd.Flags().Changed("win-rate") {
				inputs.WinRate = &winRate
			}
			if cmd.Flags().Changed("win-loss-ratio") {
				inputs.AvgWinLossRatio = &winLossRatio
			}
			return printJSON(risk.CalculatePositionSize(inputs))
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Instrument code for the ATR leg")
	cmd.Flags().Float64Var(&balance, "balance", 0, "Account balance (required)")
	cmd.Flags().Float64Var(&price, "price", 0, "Current price")
	cmd.Flags().Float64Var(&winRate, "win-rate", 0, "Historical win rate 0-1 for the Kelly leg")
	cmd.Flags().Float64Var(&winLossRatio, "win-loss-ratio", 0, "Average win/loss ratio for the Kelly leg")
	cmd.Flags().IntVar(&lookbackDays, "days", 60, "Candle lookback for ATR")
	return cmd
}
