package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantdesk/advisor/internal/advisory"
)

func adviseCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Run the advisory decision pipeline",
	}
	cmd.AddCommand(adviseBuyCmd(configPath))
	cmd.AddCommand(adviseSellCmd(configPath))
	return cmd
}

func adviseBuyCmd(configPath *string) *cobra.Command {
	var (
		code           string
		price          float64
		balance        float64
		technicalScore float64
	)

	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Evaluate a buy candidate",
		Long:  "Fuses fundamental, technical and risk scores under the current regime gate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" {
				return fmt.Errorf("--code is required")
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			req := advisory.BuyRequest{
				Code:           code,
				CurrentPrice:   price,
				AccountBalance: balance,
			}
			if cmd.Flags().Changed("technical-score") {
				req.TechnicalScore = &technicalScore
			}
			return printJSON(app.engine.AdviseBuy(req))
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Instrument code (required)")
	cmd.Flags().Float64Var(&price, "price", 0, "Current price")
	cmd.Flags().Float64Var(&balance, "balance", 0, "Account balance for position sizing")
	cmd.Flags().Float64Var(&technicalScore, "technical-score", 50, "Technical score 0-100")
	return cmd
}

func adviseSellCmd(configPath *string) *cobra.Command {
	var (
		code     string
		price    float64
		avgPrice float64
		reason   string
		urgent   bool
	)

	cmd := &cobra.Command{
		Use:   "sell",
		Short: "Evaluate a sell signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if code == "" {
				return fmt.Errorf("--code is required")
			}

			app, err := newApp(*configPath, false, nil)
			if err != nil {
				return err
			}

			req := advisory.SellRequest{
				Code:         code,
				CurrentPrice: price,
				AvgPrice:     avgPrice,
				Reason:       reason,
				Urgent:       urgent,
			}
			if avgPrice > 0 {
				req.ProfitRate = (price - avgPrice) / avgPrice * 100
			}
			return printJSON(app.engine.AdviseSell(req))
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Instrument code (required)")
	cmd.Flags().Float64Var(&price, "price", 0, "Current price")
	cmd.Flags().Float64Var(&avgPrice, "avg-price", 0, "Average entry price")
	cmd.Flags().StringVar(&reason, "reason", "", "Caller's sell reason")
	cmd.Flags().BoolVar(&urgent, "urgent", false, "Bypass scoring (stop-loss path)")
	return cmd
}
